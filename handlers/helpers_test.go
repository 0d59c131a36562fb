package handlers

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelegationReason(t *testing.T) {
	assert.Equal(t, "[55]: spam", delegationReason("55", "spam"))
	assert.Equal(t, "[55]: ", delegationReason("55", ""))
}

func TestStrPtr(t *testing.T) {
	assert.Nil(t, strPtr(""))
	p := strPtr("x")
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}

func TestEqualPtr(t *testing.T) {
	a, b := "x", "x"
	c := "y"
	assert.True(t, equalPtr(nil, nil))
	assert.True(t, equalPtr(&a, &b))
	assert.False(t, equalPtr(&a, &c))
	assert.False(t, equalPtr(&a, nil))
	assert.False(t, equalPtr(nil, &a))
}

func TestMemberSnapshot(t *testing.T) {
	user := &discordgo.User{ID: "42", Username: "someone", Discriminator: "0"}
	snap := memberSnapshot("g", user, "", 1000)

	assert.Equal(t, "g", snap.GuildID)
	assert.Equal(t, "42", snap.MemberID)
	assert.Equal(t, int64(1000), snap.VersionAt)
	require.NotNil(t, snap.Tag)
	assert.Equal(t, user.String(), *snap.Tag)
	assert.Nil(t, snap.Nick, "empty nick stays null, not empty string")
}
