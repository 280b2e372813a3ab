package service_test

import (
	"testing"

	"pulse/internal/model"
	"pulse/internal/service"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequestToSelf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")

	_, err := s.friendSvc.SendRequest(a.ID, a.ID)
	assert.ErrorIs(t, err, service.ErrSelfRequest)
}

func TestSendRequestToUnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")

	_, err := s.friendSvc.SendRequest(a.ID, 9999)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestSendRequestDuplicatePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	_, err := s.friendSvc.SendRequest(a.ID, b.ID)
	require.NoError(t, err)

	// 同方向重复
	_, err = s.friendSvc.SendRequest(a.ID, b.ID)
	assert.ErrorIs(t, err, service.ErrDuplicateRequest)

	// 反方向同样视为重复
	_, err = s.friendSvc.SendRequest(b.ID, a.ID)
	assert.ErrorIs(t, err, service.ErrDuplicateRequest)
}

func TestSendRequestNotifiesReceiver(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	req, err := s.friendSvc.SendRequest(a.ID, b.ID)
	require.NoError(t, err)

	list, err := s.notifyRepo.ListForUser(b.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	n := list[0]
	assert.Equal(t, model.NotificationTypeFriendRequest, n.Type)
	assert.Equal(t, "alice", n.ActorName)
	assert.Equal(t, model.RelatedKindFriendRequest, n.RelatedKind)
	assert.Equal(t, req.ID, n.RelatedID)
}

func TestAcceptRequestFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	req, err := s.friendSvc.SendRequest(a.ID, b.ID)
	require.NoError(t, err)

	// 非接收者不能接受
	_, err = s.friendSvc.AcceptRequest(req.ID, a.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	already, err := s.friendSvc.AcceptRequest(req.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, already)

	friends, err := s.friendSvc.IsFriendWith(a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, friends)

	// 重复接受为无害no-op
	already, err = s.friendSvc.AcceptRequest(req.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, already)

	// 发起者收到高优先级的接受通知
	list, err := s.notifyRepo.ListForUser(a.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.NotificationTypeFriendAccept, list[0].Type)
	assert.Equal(t, model.PriorityHigh, list[0].Priority)
}

func TestSendRequestAfterFriends(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	req, err := s.friendSvc.SendRequest(a.ID, b.ID)
	require.NoError(t, err)
	_, err = s.friendSvc.AcceptRequest(req.ID, b.ID)
	require.NoError(t, err)

	_, err = s.friendSvc.SendRequest(b.ID, a.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyFriends)
}

func TestRejectRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	req, err := s.friendSvc.SendRequest(a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, s.friendSvc.RejectRequest(req.ID, b.ID))

	// 拒绝是终态，不能再接受
	_, err = s.friendSvc.AcceptRequest(req.ID, b.ID)
	assert.ErrorIs(t, err, service.ErrRequestNotFound)

	// 被拒绝后可以重新发起
	_, err = s.friendSvc.SendRequest(a.ID, b.ID)
	assert.NoError(t, err)
}

func TestListFriendsWithStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	req, err := s.friendSvc.SendRequest(a.ID, b.ID)
	require.NoError(t, err)
	_, err = s.friendSvc.AcceptRequest(req.ID, b.ID)
	require.NoError(t, err)

	friends, err := s.friendSvc.ListFriends(a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, b.ID, friends[0].Friend.ID)
	require.NotNil(t, friends[0].Stat)
	assert.Zero(t, friends[0].Stat.PulsesSent)
}
