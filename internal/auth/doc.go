// Package auth provides optional bearer token authentication.
//
// # Tokens
//
// Tokens are HS256 JWTs signed with auth.jwt_secret. The "sub" claim names
// the caller and the "roles" claim lists its roles:
//
//	verifier, err := NewJWTVerifier(secret)
//	token, err := verifier.Generate("ops-console", []string{RoleOperator}, 24*time.Hour)
//
// # HTTP
//
// HTTPAuthMiddleware rejects requests without a valid token.
// RequireOperatorHTTP lets viewers read state and reserves commands for
// operators.
//
// # gRPC
//
// UnaryInterceptor guards the capability service served by sim-robot. Every
// call needs the operator role.
package auth
