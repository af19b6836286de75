package skillsync_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/skillsync"
	"github.com/MrEthical07/skillsync/access"
)

// ExampleNew demonstrates client construction with Redis-backed credentials.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := skillsync.DefaultConfig()
	cfg.API.BaseURL = "https://skillsync.example.com/api"
	cfg.Storage.Backend = skillsync.StorageRedis
	cfg.Storage.RedisNamespace = "workstation-1"

	client, _ := skillsync.New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	_ = client
}

// ExampleClient_Login shows a login call and how to surface its error.
func ExampleClient_Login() {
	var client *skillsync.Client
	data, err := client.Login(context.Background(), "ada@acme.test", "password")
	if err != nil {
		if errors.Is(err, skillsync.ErrSessionChanged) {
			return
		}
		fmt.Println(skillsync.UserMessage(err))
		return
	}
	_ = data
}

// ExampleClient_WaitResolved waits for the first resolution and lists the
// navigation links for it.
func ExampleClient_WaitResolved() {
	var client *skillsync.Client
	snap, err := client.WaitResolved(context.Background())
	if err != nil {
		return
	}
	for _, link := range access.Navigation(snap) {
		fmt.Println(link.Label, link.Path)
	}
}
