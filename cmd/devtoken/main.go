// devtoken mints bearer tokens signed with JWT_SECRET for local testing of the
// cart, checkout and admin endpoints.
//
// Usage:
//
//	go run ./cmd/devtoken -customer 42
//	go run ./cmd/devtoken -customer 1 -role staff -ttl 1h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/example/foodorder/internal/config"
	"github.com/example/foodorder/internal/utils"
)

func main() {
	customer := flag.Uint("customer", 0, "customer id carried by the token")
	role := flag.String("role", utils.RoleCustomer, "token role: customer or staff")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *customer == 0 {
		fmt.Fprintln(os.Stderr, "devtoken: -customer is required")
		os.Exit(2)
	}
	if *role != utils.RoleCustomer && *role != utils.RoleStaff {
		fmt.Fprintf(os.Stderr, "devtoken: unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg := config.Load()
	token, err := utils.GenerateToken(cfg.JWTSecret, *customer, *role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
