// Command authgen issues a bearer token for a streamer account and
// prints it. Tokens live in redis under auth:<token>; the server only
// resolves them, so this is how operators grant dashboard access.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/isaackogan/Live-Tok-Backend/internal/redis"
)

func main() {
	username := flag.String("username", "", "streamer unique_id the token authenticates as")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	redisURL := flag.String("redis-url", os.Getenv("REDIS_URL"), "redis connection URL")
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}
	if *redisURL == "" {
		log.Fatal("-redis-url or REDIS_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, *redisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer func() { _ = client.Close() }()

	token, err := redis.NewAuthStore(client).Issue(ctx, *username, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
