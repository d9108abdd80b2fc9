package ports_test

import (
	"testing"

	"github.com/target/lab-portal/internal/adapters/authroles"
	"github.com/target/lab-portal/internal/adapters/devauth"
	"github.com/target/lab-portal/internal/adapters/oidc"
	redisadapter "github.com/target/lab-portal/internal/adapters/redis"
	"github.com/target/lab-portal/internal/mocks"
	authmocks "github.com/target/lab-portal/internal/mocks/auth"
	"github.com/target/lab-portal/internal/ports"
)

// Compile-time conformance of adapters and test doubles to the ports. The
// remaining adapters assert conformance next to their definitions.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	// Production adapters.
	var _ ports.AuthProvider = (*devauth.Provider)(nil)
	var _ ports.AuthProvider = (*oidc.Provider)(nil)
	var _ ports.SessionStore = (*redisadapter.SessionStore)(nil)
	var _ ports.SessionRevoker = (*redisadapter.SessionStore)(nil)
	var _ ports.RoleMapper = authroles.StaticRoleMapper{}

	// Hand-written doubles.
	var _ ports.AuthProvider = (*authmocks.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*authmocks.MemorySessionStore)(nil)
	var _ ports.RoleMapper = (*authmocks.StaticRoleMapper)(nil)
	var _ ports.RoleStore = (*authmocks.MemoryRoleStore)(nil)

	// Generated gomock doubles.
	var _ ports.SessionResolver = (*mocks.MockSessionResolver)(nil)
	var _ ports.ActiveRoleCodec = (*mocks.MockActiveRoleCodec)(nil)
	var _ ports.MediaUploader = (*mocks.MockMediaUploader)(nil)
	var _ ports.Notifier = (*mocks.MockNotifier)(nil)
}
