package service_test

import (
	"testing"

	"pulse/internal/model"
	"pulse/internal/service"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func befriend(t *testing.T, s *testServices, a, b uint) {
	t.Helper()
	req, err := s.friendSvc.SendRequest(a, b)
	require.NoError(t, err)
	_, err = s.friendSvc.AcceptRequest(req.ID, b)
	require.NoError(t, err)
}

func TestSendDirectDropsInvalidRecipients(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")
	stranger := testutil.CreateTestUser(t, db, "carol")
	befriend(t, s, a.ID, b.ID)

	// 非好友、发送者本人、不存在的用户都被静默剔除
	pulse, err := s.pulseSvc.SendDirect(a.ID, "hello", []uint{b.ID, stranger.ID, a.ID, 9999, b.ID})
	require.NoError(t, err)

	recs, err := s.pulseRepo.ListRecipients(pulse.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, b.ID, recs[0].RecipientID)
}

func TestSendDirectAllInvalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	stranger := testutil.CreateTestUser(t, db, "carol")

	_, err := s.pulseSvc.SendDirect(a.ID, "hello", []uint{stranger.ID, a.ID})
	assert.ErrorIs(t, err, service.ErrEmptyRecipients)
}

func TestSendDirectUpdatesStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")
	befriend(t, s, a.ID, b.ID)

	_, err := s.pulseSvc.SendDirect(a.ID, "hello", []uint{b.ID})
	require.NoError(t, err)

	stat, err := s.friendSvc.GetStat(a.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stat.PulsesSent)

	stat, err = s.friendSvc.GetStat(b.ID, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stat.PulsesReceived)
}

func TestSendToCircleSnapshotsMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	owner := testutil.CreateTestUser(t, db, "owner")
	m1 := testutil.CreateTestUser(t, db, "m1")
	m2 := testutil.CreateTestUser(t, db, "m2")
	befriend(t, s, owner.ID, m1.ID)
	befriend(t, s, owner.ID, m2.ID)

	circle, err := s.circleSvc.Create(owner.ID, "晨跑小队", "")
	require.NoError(t, err)
	require.NoError(t, s.circleSvc.Invite(circle.ID, owner.ID, m1.ID))
	require.NoError(t, s.circleSvc.Invite(circle.ID, owner.ID, m2.ID))

	pulse, err := s.pulseSvc.SendToCircle(owner.ID, circle.ID, "出发了")
	require.NoError(t, err)

	// 快照不含发送者本人
	recs, err := s.pulseRepo.ListRecipients(pulse.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// 发送后退出的成员仍保留接收记录
	require.NoError(t, s.circleSvc.Leave(circle.ID, m1.ID))
	recs, err = s.pulseRepo.ListRecipients(pulse.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// 圈子pulse计数+1
	got, err := s.circleRepo.GetByID(circle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.PulsesCount)
}

func TestSendToCircleRequiresMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	owner := testutil.CreateTestUser(t, db, "owner")
	outsider := testutil.CreateTestUser(t, db, "outsider")

	circle, err := s.circleSvc.Create(owner.ID, "私圈", "")
	require.NoError(t, err)

	_, err = s.pulseSvc.SendToCircle(outsider.ID, circle.ID, "hi")
	assert.ErrorIs(t, err, service.ErrNotCircleMember)

	// 只有圈主一个成员时没有接收者
	_, err = s.pulseSvc.SendToCircle(owner.ID, circle.ID, "hi")
	assert.ErrorIs(t, err, service.ErrEmptyRecipients)
}

func TestMarkSeenOnlyRecipient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")
	c := testutil.CreateTestUser(t, db, "carol")
	befriend(t, s, a.ID, b.ID)

	pulse, err := s.pulseSvc.SendDirect(a.ID, "hello", []uint{b.ID})
	require.NoError(t, err)

	_, err = s.pulseSvc.MarkSeen(pulse.ID, c.ID)
	assert.ErrorIs(t, err, service.ErrNotRecipient)

	wrote, err := s.pulseSvc.MarkSeen(pulse.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, wrote)

	// 重复标记无害
	wrote, err = s.pulseSvc.MarkSeen(pulse.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, wrote)

	// 响应率重算
	stat, err := s.friendSvc.GetStat(b.ID, a.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, stat.ResponseRate, 0.001)
}

func TestToggleReaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")
	befriend(t, s, a.ID, b.ID)

	pulse, err := s.pulseSvc.SendDirect(a.ID, "hello", []uint{b.ID})
	require.NoError(t, err)

	_, err = s.pulseSvc.ToggleReaction(pulse.ID, b.ID, "nonsense")
	assert.ErrorIs(t, err, service.ErrInvalidReaction)

	result, err := s.pulseSvc.ToggleReaction(pulse.ID, b.ID, "heart")
	require.NoError(t, err)
	assert.Equal(t, service.ReactionAdded, result)

	// 不同类型覆盖
	result, err = s.pulseSvc.ToggleReaction(pulse.ID, b.ID, "fire")
	require.NoError(t, err)
	assert.Equal(t, service.ReactionChanged, result)

	// 同类型再次提交即移除
	result, err = s.pulseSvc.ToggleReaction(pulse.ID, b.ID, "fire")
	require.NoError(t, err)
	assert.Equal(t, service.ReactionRemoved, result)

	_, err = s.pulseRepo.GetReaction(pulse.ID, b.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReactionNotifiesSenderExceptSelf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")
	befriend(t, s, a.ID, b.ID)

	pulse, err := s.pulseSvc.SendDirect(a.ID, "hello", []uint{b.ID})
	require.NoError(t, err)

	baseline, err := s.notifyRepo.CountUnread(a.ID)
	require.NoError(t, err)

	// 接收者反应：发送者收到通知
	_, err = s.pulseSvc.ToggleReaction(pulse.ID, b.ID, "heart")
	require.NoError(t, err)
	count, err := s.notifyRepo.CountUnread(a.ID)
	require.NoError(t, err)
	assert.Equal(t, baseline+1, count)

	// 发送者反应自己的pulse：不产生通知
	_, err = s.pulseSvc.ToggleReaction(pulse.ID, a.ID, "laugh")
	require.NoError(t, err)
	count, err = s.notifyRepo.CountUnread(a.ID)
	require.NoError(t, err)
	assert.Equal(t, baseline+1, count)
}

func TestReactionsSummaryOrdering(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	users := make([]*model.User, 3)
	for i := range users {
		users[i] = testutil.CreateTestUser(t, db, "u"+string(rune('a'+i)))
		befriend(t, s, a.ID, users[i].ID)
	}

	ids := []uint{users[0].ID, users[1].ID, users[2].ID}
	pulse, err := s.pulseSvc.SendDirect(a.ID, "hello", ids)
	require.NoError(t, err)

	// fire×2, heart×1, thumbs_up×1
	_, err = s.pulseSvc.ToggleReaction(pulse.ID, users[0].ID, "fire")
	require.NoError(t, err)
	_, err = s.pulseSvc.ToggleReaction(pulse.ID, users[1].ID, "fire")
	require.NoError(t, err)
	_, err = s.pulseSvc.ToggleReaction(pulse.ID, users[2].ID, "heart")
	require.NoError(t, err)
	_, err = s.pulseSvc.ToggleReaction(pulse.ID, a.ID, "thumbs_up")
	require.NoError(t, err)

	summary, err := s.pulseSvc.ReactionsSummary(pulse.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, summary, 3)

	// 计数降序；计数相同时heart(声明序0)先于thumbs_up(声明序5)
	assert.Equal(t, "fire", summary[0].Type)
	assert.EqualValues(t, 2, summary[0].Count)
	assert.Equal(t, "heart", summary[1].Type)
	assert.Equal(t, "thumbs_up", summary[2].Type)
}

func TestGetPulseVisibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")
	c := testutil.CreateTestUser(t, db, "carol")
	befriend(t, s, a.ID, b.ID)

	pulse, err := s.pulseSvc.SendDirect(a.ID, "hello", []uint{b.ID})
	require.NoError(t, err)

	_, err = s.pulseSvc.Get(pulse.ID, a.ID)
	assert.NoError(t, err)
	_, err = s.pulseSvc.Get(pulse.ID, b.ID)
	assert.NoError(t, err)
	_, err = s.pulseSvc.Get(pulse.ID, c.ID)
	assert.ErrorIs(t, err, service.ErrNotRecipient)

	_, err = s.pulseSvc.Get(9999, a.ID)
	assert.ErrorIs(t, err, service.ErrPulseNotFound)
}
