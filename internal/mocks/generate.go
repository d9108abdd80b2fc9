// Package mocks provides gomock implementations of the lab portal's repository
// and port interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	users := mocks.NewMockUserRepository(ctrl)
//	users.EXPECT().GetByID(gomock.Any(), "u1").Return(user, nil)
package mocks

// Repository contracts from internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=repository_mock.go github.com/target/lab-portal/internal/core UserRepository,DepartmentRepository,NewsletterRepository,ProjectRepository,ContactRepository

// Hexagonal ports: identity provider, sessions, roles, cookie codec, media and mail.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/lab-portal/internal/ports AuthProvider,SessionStore,SessionRevoker,SessionResolver,RoleStore,ActiveRoleCodec,PasswordHasher,MediaUploader,Notifier
