package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/fidus/MT5-Allocation-Backend/internal/auth"
	"github.com/fidus/MT5-Allocation-Backend/internal/config"
)

func main() {
	subject := flag.String("subject", "", "admin user ID to embed as the token subject")
	role := flag.String("role", auth.RoleAdmin, "role claim: admin or viewer")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-subject is required")
	}
	if *role != auth.RoleAdmin && *role != auth.RoleViewer {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	svc := auth.NewService(cfg.Auth.Issuer, []byte(cfg.Auth.Secret), cfg.Auth.TTL)
	token, err := svc.IssueToken(*subject, *role)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Printf("Subject: %s\nRole: %s\nToken: %s\n", *subject, *role, token)
}
