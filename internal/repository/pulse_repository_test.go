package repository_test

import (
	"testing"
	"time"

	"pulse/internal/model"
	"pulse/internal/repository"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWithRecipients(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPulseRepository(db)

	sender := testutil.CreateTestUser(t, db, "sender")
	r1 := testutil.CreateTestUser(t, db, "r1")
	r2 := testutil.CreateTestUser(t, db, "r2")

	pulse := &model.Pulse{SenderID: sender.ID, Type: model.PulseTypeDirect, Message: "hi"}
	require.NoError(t, repo.CreateWithRecipients(pulse, []uint{r1.ID, r2.ID}))
	require.NotZero(t, pulse.ID)

	recs, err := repo.ListRecipients(pulse.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Nil(t, rec.SeenAt)
	}
}

func TestMarkSeenIsMonotonic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPulseRepository(db)

	sender := testutil.CreateTestUser(t, db, "sender")
	r1 := testutil.CreateTestUser(t, db, "r1")

	pulse := &model.Pulse{SenderID: sender.ID, Type: model.PulseTypeDirect, Message: "hi"}
	require.NoError(t, repo.CreateWithRecipients(pulse, []uint{r1.ID}))

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	wrote, err := repo.MarkSeen(pulse.ID, r1.ID, first)
	require.NoError(t, err)
	assert.True(t, wrote)

	// 重复标记不写入、不改动已有时间戳
	wrote, err = repo.MarkSeen(pulse.ID, r1.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, wrote)

	rec, err := repo.GetRecipient(pulse.ID, r1.ID)
	require.NoError(t, err)
	require.NotNil(t, rec.SeenAt)
	assert.True(t, rec.SeenAt.Equal(first))
}

func TestCountSeenFrom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPulseRepository(db)

	sender := testutil.CreateTestUser(t, db, "sender")
	r1 := testutil.CreateTestUser(t, db, "r1")

	for i := 0; i < 3; i++ {
		pulse := &model.Pulse{SenderID: sender.ID, Type: model.PulseTypeDirect, Message: "hi"}
		require.NoError(t, repo.CreateWithRecipients(pulse, []uint{r1.ID}))
		if i < 2 {
			_, err := repo.MarkSeen(pulse.ID, r1.ID, time.Now())
			require.NoError(t, err)
		}
	}

	count, err := repo.CountSeenFrom(r1.ID, sender.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestReactionLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPulseRepository(db)

	sender := testutil.CreateTestUser(t, db, "sender")
	r1 := testutil.CreateTestUser(t, db, "r1")

	pulse := &model.Pulse{SenderID: sender.ID, Type: model.PulseTypeDirect, Message: "hi"}
	require.NoError(t, repo.CreateWithRecipients(pulse, []uint{r1.ID}))

	reaction := &model.PulseReaction{PulseID: pulse.ID, UserID: r1.ID, ReactionType: "heart"}
	require.NoError(t, repo.CreateReaction(reaction))

	// 覆盖类型
	require.NoError(t, repo.UpdateReactionType(reaction.ID, "fire"))
	got, err := repo.GetReaction(pulse.ID, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, "fire", got.ReactionType)

	// 删除后查询不到
	require.NoError(t, repo.DeleteReaction(reaction.ID))
	_, err = repo.GetReaction(pulse.ID, r1.ID)
	assert.Error(t, err)
}

func TestCountReactionsByType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPulseRepository(db)

	sender := testutil.CreateTestUser(t, db, "sender")
	pulse := &model.Pulse{SenderID: sender.ID, Type: model.PulseTypeDirect, Message: "hi"}

	users := make([]*model.User, 3)
	ids := make([]uint, 3)
	for i := range users {
		users[i] = testutil.CreateTestUser(t, db, "u"+string(rune('a'+i)))
		ids[i] = users[i].ID
	}
	require.NoError(t, repo.CreateWithRecipients(pulse, ids))

	require.NoError(t, repo.CreateReaction(&model.PulseReaction{PulseID: pulse.ID, UserID: ids[0], ReactionType: "heart"}))
	require.NoError(t, repo.CreateReaction(&model.PulseReaction{PulseID: pulse.ID, UserID: ids[1], ReactionType: "heart"}))
	require.NoError(t, repo.CreateReaction(&model.PulseReaction{PulseID: pulse.ID, UserID: ids[2], ReactionType: "wow"}))

	counts, err := repo.CountReactionsByType(pulse.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts["heart"])
	assert.EqualValues(t, 1, counts["wow"])
}
