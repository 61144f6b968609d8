package main

import (
	"fmt"
	"log"

	"github.com/fidus/MT5-Allocation-Backend/internal/secrets"
)

func main() {
	key, err := secrets.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	fmt.Printf("FERNET_KEY=%s\n", key)
}
