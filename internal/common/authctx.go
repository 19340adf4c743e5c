package common

import "context"

type ctxKey string

const (
	ownerIDKey   ctxKey = "auth/owner-id"
	ownerSlotKey ctxKey = "auth/owner-slot"
)

// WithOwnerID stores the authenticated store owner on the context. When an owner
// slot was installed further up the chain it is filled as well.
func WithOwnerID(ctx context.Context, id string) context.Context {
	if slot, ok := ctx.Value(ownerSlotKey).(*string); ok && slot != nil {
		*slot = id
	}
	return context.WithValue(ctx, ownerIDKey, id)
}

// OwnerID extracts the authenticated store owner from the context if present.
func OwnerID(ctx context.Context) (string, bool) {
	v := ctx.Value(ownerIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// WithOwnerSlot installs a slot that outer middleware can read after the handler
// returns, since contexts derived downstream are not visible to them.
func WithOwnerSlot(ctx context.Context) (context.Context, *string) {
	slot := new(string)
	return context.WithValue(ctx, ownerSlotKey, slot), slot
}
