package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := openGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUsers := []struct {
			Email   string
			Name    string
			IsAdmin bool
			Member  bool
		}{
			{"admin@office.test", "Office Admin", true, false},
			{"maria@office.test", "Maria", false, true},
			{"jonas@office.test", "Jonas", false, false},
		}

		for _, su := range seedUsers {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", su.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", su.Email)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (email, name, password_hash, is_admin, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				su.Email, su.Name, string(hash), su.IsAdmin,
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", su.Email, err)
			}
			fmt.Println("Seeded user:", su.Email)

			if su.Member {
				var id int64
				if err := db.Raw("SELECT id FROM users WHERE email = ?", su.Email).Row().Scan(&id); err != nil {
					log.Fatalf("failed to look up seeded user: %v", err)
				}
				if err := db.Exec(
					"INSERT INTO user_meta (user_id, meta_key, meta_value) VALUES (?, 'is_member', '1')", id,
				).Error; err != nil {
					log.Fatalf("failed to mark %s as team member: %v", su.Email, err)
				}
				fmt.Println("Added to team:", su.Email)
			}
		}

		if err := db.Exec(
			"INSERT INTO app_settings (setting_key, setting_value) VALUES ('reminders_enabled', '1') ON CONFLICT (setting_key) DO NOTHING",
		).Error; err != nil {
			log.Fatalf("failed to seed settings: %v", err)
		}

		fmt.Println("Seeding finished")
	},
}
