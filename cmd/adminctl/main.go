package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/auth"
	"storefront/internal/db"
	"storefront/internal/session"
)

// adminctl is the operator tool for managing admin accounts: create an admin
// user, list users, change an admin password, delete a user (with its
// sessions).

func main() {
	_ = godotenv.Load(".env.local")

	gdb, err := db.Connect(os.Getenv("DATABASE_URL"), false)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := auth.Migrate(gdb); err != nil {
		log.Fatal("Failed to migrate user table: ", err)
	}
	if err := session.Migrate(gdb); err != nil {
		log.Fatal("Failed to migrate session table: ", err)
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println()
		fmt.Println("==== Admin User Management ====")
		fmt.Println("1. Create admin user")
		fmt.Println("2. List users")
		fmt.Println("3. Change a user's password")
		fmt.Println("4. Delete user")
		fmt.Println("5. Exit")

		switch prompt(in, "Choice (1-5): ") {
		case "1":
			createAdmin(gdb, in)
		case "2":
			listUsers(gdb)
		case "3":
			changePassword(gdb, in)
		case "4":
			deleteUser(gdb, in)
		case "5":
			return
		default:
			fmt.Println("Invalid choice, enter 1-5.")
		}
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		os.Exit(0)
	}
	return strings.TrimSpace(in.Text())
}

func createAdmin(gdb *gorm.DB, in *bufio.Scanner) {
	username := prompt(in, "Username: ")
	email := prompt(in, "Email: ")
	password := prompt(in, "Password: ")
	if username == "" || email == "" || password == "" {
		fmt.Println("Username, email, and password are all required.")
		return
	}

	var existing auth.User
	if err := gdb.First(&existing, "username = ?", username).Error; err == nil {
		fmt.Printf("User %q already exists (id %s, email %s)\n", username, existing.ID, existing.Email)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Println("Failed to hash password:", err)
		return
	}

	user := auth.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    "Super",
		LastName:     "Admin",
		IsAdmin:      true,
		IsStaff:      true,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := gdb.Create(&user).Error; err != nil {
		fmt.Println("Failed to create admin user:", err)
		return
	}

	fmt.Printf("Admin user %q created (id %s)\n", username, user.ID)
}

func listUsers(gdb *gorm.DB) {
	var users []auth.User
	if err := gdb.Order("created_at ASC").Find(&users).Error; err != nil {
		fmt.Println("Failed to list users:", err)
		return
	}

	fmt.Printf("\nTotal users: %d\n", len(users))
	fmt.Printf("%-20s %-30s %-6s %-8s\n", "Username", "Email", "Admin", "Status")
	for _, u := range users {
		status := "active"
		if !u.IsActive {
			status = "inactive"
		}
		fmt.Printf("%-20s %-30s %-6v %-8s\n", u.Username, u.Email, u.IsAdmin, status)
	}
}

func changePassword(gdb *gorm.DB, in *bufio.Scanner) {
	username := prompt(in, "Username: ")
	var user auth.User
	if err := gdb.First(&user, "username = ?", username).Error; err != nil {
		fmt.Printf("User %q not found\n", username)
		return
	}

	password := prompt(in, "New password: ")
	if password == "" {
		fmt.Println("Password cannot be empty.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Println("Failed to hash password:", err)
		return
	}
	if err := gdb.Model(&user).Update("password_hash", string(hashed)).Error; err != nil {
		fmt.Println("Failed to update password:", err)
		return
	}

	fmt.Println("Password updated.")
}

func deleteUser(gdb *gorm.DB, in *bufio.Scanner) {
	username := prompt(in, "Username to delete: ")
	var user auth.User
	if err := gdb.First(&user, "username = ?", username).Error; err != nil {
		fmt.Printf("User %q not found\n", username)
		return
	}

	// Sessions referencing the user must be removed explicitly.
	sessions := session.NewStore(gdb)
	if err := sessions.DeleteForUser(user.ID); err != nil {
		fmt.Println("Failed to delete user's sessions:", err)
		return
	}
	if err := gdb.Delete(&user).Error; err != nil {
		fmt.Println("Failed to delete user:", err)
		return
	}

	fmt.Printf("User %q deleted\n", username)
}
