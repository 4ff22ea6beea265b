package middleware

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/inventory-backend/pkg/actor"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

func actorWithRole(role enums.UserRole) actor.Actor {
	id := uuid.New()
	return actor.Actor{UserID: &id, Username: "keeper", Role: role}
}

func TestActorFromContextRoundTrip(t *testing.T) {
	in := actorWithRole(enums.UserRoleStaff)
	in.RequestID = "req-9"
	out := ActorFromContext(WithActor(context.Background(), in))
	if out.UserID == nil || *out.UserID != *in.UserID {
		t.Fatalf("user id lost: %v", out.UserID)
	}
	if out.Role != in.Role || out.Username != in.Username || out.RequestID != "req-9" {
		t.Fatalf("unexpected actor %+v", out)
	}
}

func TestActorFromContextAnonymous(t *testing.T) {
	out := ActorFromContext(context.Background())
	if !out.IsSystem() {
		t.Fatalf("expected system actor, got %+v", out)
	}
}
