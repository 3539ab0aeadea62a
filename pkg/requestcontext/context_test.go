package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "trustline/pkg/domain"
)

func TestPrincipalProfiles(t *testing.T) {
	profile := uuid.New()

	tests := []struct {
		name         string
		principal    Principal
		wantEmployee bool
		wantCompany  bool
	}{
		{name: "employee with profile", principal: Principal{ID: id.NewUserID(), Role: RoleEmployee, ProfileID: profile}, wantEmployee: true},
		{name: "company with profile", principal: Principal{ID: id.NewUserID(), Role: RoleCompany, ProfileID: profile}, wantCompany: true},
		{name: "employee before registration", principal: Principal{ID: id.NewUserID(), Role: RoleEmployee}},
		{name: "admin never maps to a profile", principal: Principal{ID: id.NewUserID(), Role: RoleAdmin, ProfileID: profile}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			employeeID, ok := tt.principal.EmployeeID()
			assert.Equal(t, tt.wantEmployee, ok)
			if ok {
				assert.Equal(t, profile, uuid.UUID(employeeID))
			}
			_, ok = tt.principal.CompanyID()
			assert.Equal(t, tt.wantCompany, ok)
		})
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous defaults", func(t *testing.T) {
		assert.True(t, PrincipalFrom(ctx).IsZero())
		assert.Empty(t, ActorID(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ClientIP(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("populated request", func(t *testing.T) {
		userID := id.NewUserID()
		fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		ctx := WithPrincipal(ctx, Principal{ID: userID, Role: RoleVerifier})
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithTime(ctx, fixed)
		ctx = WithClientMetadata(ctx, "203.0.113.9", "curl/8.0")

		assert.Equal(t, userID.String(), ActorID(ctx))
		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, fixed, Now(ctx))
		assert.Equal(t, "203.0.113.9", ClientIP(ctx))
		assert.Equal(t, "curl/8.0", UserAgent(ctx))
		assert.True(t, RoleVerifier.IsValid())
		assert.False(t, Role("root").IsValid())
	})
}
