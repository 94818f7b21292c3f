package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClientFromURL(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewRedisClientFromURL(context.Background(), "redis://"+srv.Addr()+"/0")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	srv.CheckGet(t, "k", "v")
}

func TestNewRedisClientFromURLInvalid(t *testing.T) {
	if _, err := NewRedisClientFromURL(context.Background(), "not-a-url"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRedisClientFromURLUnreachable(t *testing.T) {
	if _, err := NewRedisClientFromURL(context.Background(), "redis://localhost:1/0"); err == nil {
		t.Fatalf("expected ping error")
	}
}
