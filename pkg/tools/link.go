package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pmbot/pkg/logx"
	"pmbot/pkg/persistence"
	"pmbot/pkg/proto"
)

// linkCodeTTL bounds how long an account link code stays valid.
const linkCodeTTL = 15 * time.Minute

// LinkTools implements the account link handler.
type LinkTools struct {
	store  *persistence.Store
	logger *logx.Logger
}

// NewLinkTools creates the link handler.
func NewLinkTools(store *persistence.Store) *LinkTools {
	return &LinkTools{store: store, logger: logx.NewLogger("tools")}
}

// Link handles link: registers the caller and issues a single-use code that
// ties their chat identity to an external account.
func (l *LinkTools) Link(ctx context.Context, turn *proto.Turn) Result {
	if _, err := l.store.UpsertUser(ctx, turn.UserID, "", ""); err != nil {
		l.logger.Error("User upsert failed: %v", err)
		return fail("Something went wrong while linking your account. Please try again.")
	}

	code := uuid.NewString()
	if err := l.store.CreateLinkCode(ctx, code, turn.UserID, time.Now().Add(linkCodeTTL)); err != nil {
		l.logger.Error("Link code creation failed: %v", err)
		return fail("Something went wrong while linking your account. Please try again.")
	}

	return ok(fmt.Sprintf("Your link code is %s. It expires in %d minutes.",
		code, int(linkCodeTTL.Minutes())))
}
