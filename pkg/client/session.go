package client

import (
	"context"

	"github.com/yourwae/fastget-backend/pkg/authstate"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

var (
	_ authstate.SessionProber = (*Client)(nil)
	_ authstate.RoleFetcher   = (*Client)(nil)
)

// Session reports the signed-in user for authstate. No token, or a token the
// server no longer accepts, means signed out.
func (c *Client) Session(ctx context.Context) (*authstate.Session, error) {
	access, _ := c.Tokens()
	if access == "" {
		return nil, nil
	}
	me, err := c.Me(ctx)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	sess := sessionFrom(me.User, access)
	if sess != nil && me.MetadataRole.IsValid() {
		sess.MetadataRole = me.MetadataRole
	}
	return sess, nil
}

// FetchRole loads the authoritative role. It refuses to answer for a user
// other than the one the tokens belong to.
func (c *Client) FetchRole(ctx context.Context, userID string) (enums.Role, error) {
	me, err := c.Me(ctx)
	if err != nil {
		return "", err
	}
	if me.User == nil || me.User.ID.String() != userID {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "session belongs to another user")
	}
	return me.Role, nil
}
