package auth

import (
	"context"
	"strings"

	"github.com/immersive-lab/lab-api/internal/models"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// MemberFinder is the slice of the member store the resolver needs. All
// lookups return (nil, nil) when no member matches.
type MemberFinder interface {
	FindByLoginID(ctx context.Context, loginID string) (*models.Member, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	FindByName(ctx context.Context, name string) (*models.Member, error)
}

// Method tags how a request's principal was established.
type Method string

const (
	MethodToken        Method = "token"
	MethodLegacyHeader Method = "legacy-header"
	MethodNone         Method = "unauthenticated"
)

// Principal is the per-request resolution outcome. It is resolved once by the
// auth middleware and passed onward; handlers never re-derive it.
type Principal struct {
	Member *models.Member
	Method Method
}

// Authenticated reports whether a member was resolved.
func (p Principal) Authenticated() bool {
	return p.Member != nil
}

// Require returns the resolved member or an unauthenticated error.
func (p Principal) Require() (*models.Member, error) {
	if p.Member == nil {
		return nil, apperrors.Unauthenticated("Please log in first.")
	}
	return p.Member, nil
}

// Resolver turns request credentials into a Principal.
type Resolver struct {
	members MemberFinder
}

func NewResolver(members MemberFinder) *Resolver {
	return &Resolver{members: members}
}

// Resolve establishes the acting principal. tokenSubject is the subject of an
// already-validated bearer token ("" when the request carried none); a
// subject with no backing member is a configuration error, not a client
// fault. Otherwise the legacy plain identifier header is matched against
// login ID, student ID, email and display name in that order.
func (r *Resolver) Resolve(ctx context.Context, tokenSubject, legacyIdentifier string) (Principal, error) {
	if tokenSubject != "" {
		m, err := r.members.FindByLoginID(ctx, tokenSubject)
		if err != nil {
			return Principal{Method: MethodNone}, apperrors.Internal("authentication failed", err)
		}
		if m == nil {
			return Principal{Method: MethodNone}, apperrors.Internal("token subject has no member record", nil)
		}
		return Principal{Member: m, Method: MethodToken}, nil
	}

	id := strings.TrimSpace(legacyIdentifier)
	if id == "" {
		return Principal{Method: MethodNone}, nil
	}
	for _, find := range []func(context.Context, string) (*models.Member, error){
		r.members.FindByLoginID,
		r.members.FindByStudentID,
		r.members.FindByEmail,
		r.members.FindByName,
	} {
		m, err := find(ctx, id)
		if err != nil {
			return Principal{Method: MethodNone}, apperrors.Internal("authentication failed", err)
		}
		if m != nil {
			return Principal{Member: m, Method: MethodLegacyHeader}, nil
		}
	}
	return Principal{Method: MethodNone}, nil
}

// RequireAnyRole passes when the member is an admin or holds one of the
// allowed roles. The admin flag is a capability override, not a role, so no
// role set ever needs to enumerate it.
func RequireAnyRole(m *models.Member, allowed ...models.Role) error {
	if m.Admin {
		return nil
	}
	for _, role := range allowed {
		if m.Role == role {
			return nil
		}
	}
	return apperrors.Forbidden("You do not have permission to do that.")
}

// RequireAdmin passes only for members with the admin flag.
func RequireAdmin(m *models.Member) error {
	if !m.Admin {
		return apperrors.Forbidden("Administrator privileges are required.")
	}
	return nil
}
