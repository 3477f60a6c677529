package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pquerna/otp/totp"
)

func main() {
	secret := os.Getenv("ADMIN_TOTP_SECRET")

	if secret == "" {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      "did-backend",
			AccountName: "admin",
		})
		if err != nil {
			fmt.Printf("Error generating TOTP secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("============================================================")
		fmt.Println("New Admin TOTP Secret")
		fmt.Println("============================================================")
		fmt.Println()
		fmt.Printf("Secret: %s\n", key.Secret())
		fmt.Printf("Provisioning URL: %s\n", key.URL())
		fmt.Println()
		fmt.Println("Put the secret in admin.totpSecret (config.yaml) and scan the")
		fmt.Println("URL with an authenticator app.")
		return
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		fmt.Printf("Error generating TOTP code: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Current TOTP Code: %s\n", code)
	fmt.Printf("Secret: %s\n", secret)
	fmt.Printf("Valid for: ~30 seconds\n")
}
