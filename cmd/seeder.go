package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the initial admin account",
	Long:  `Create the first ADMIN account so pending registrations can be approved. Idempotent: an existing account with the same email is left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
		if adminEmail == "" {
			adminEmail = "admin@filevault.local"
		}
		adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
		if adminPassword == "" {
			log.Fatal("SEED_ADMIN_PASSWORD is required")
		}

		var exists int
		row := db.QueryRow("SELECT 1 FROM users WHERE email = $1", adminEmail)
		if err := row.Scan(&exists); err == nil {
			fmt.Println("admin account already exists:", adminEmail)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		_, err = db.Exec(
			"INSERT INTO users (id, name, email, password_hash, role, status, created_at) VALUES ($1, $2, $3, $4, 'ADMIN', 'ACTIVE', now())",
			uuid.NewString(), "Administrator", adminEmail, string(hash),
		)
		if err != nil {
			log.Fatalf("failed to insert admin account: %v", err)
		}

		fmt.Println("seeded admin account:", adminEmail)
	},
}
