package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/henmanager/internal/apperror"
)

func TestActorPermissions(t *testing.T) {
	actor := NewActor("u1", "clerk", []string{"Seller"}, []string{ViewSales, CreateSale})

	assert.True(t, actor.Can(CreateSale))
	assert.False(t, actor.Can(CancelCredit))
	assert.NoError(t, actor.Require(ViewSales))

	err := actor.Require(CancelCredit)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
	assert.Equal(t, []string{CreateSale, ViewSales}, actor.Permissions())
}

func TestNavigation(t *testing.T) {
	actor := NewActor("u1", "clerk", nil, []string{ViewSales, ViewCredits})
	assert.Equal(t, []NavItem{{"Sales", "/sales"}, {"Credits", "/credits"}}, Navigation(actor))

	assert.Empty(t, Navigation(Actor{}))
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), NewActor("u1", "admin", nil, nil))
	actor, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", actor.UserID)
}

func TestDefinitionsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Definitions {
		assert.False(t, seen[d.Code], d.Code)
		seen[d.Code] = true
	}
}
