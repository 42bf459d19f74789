package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActor_CanAccessStudent(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"cashier", Actor{ID: "c", Role: RoleCashier}, true},
		{"admin", Actor{ID: "a", Role: RoleAdmin}, true},
		{"gateway", SystemActor("midtrans"), true},
		{"own child", Actor{ID: "p", Role: RoleParent, StudentIDs: []string{"s-2", "s-1"}}, true},
		{"other child", Actor{ID: "p", Role: RoleParent, StudentIDs: []string{"s-2"}}, false},
		{"parent without students", Actor{ID: "p", Role: RoleParent}, false},
		{"no role", Actor{ID: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.CanAccessStudent("s-1"))
		})
	}
}
