//go:build integration

package dedupe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"compliancehub/internal/notification/dedupe"
	"compliancehub/pkg/testutil/containers"
)

type RedisDedupeSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *dedupe.Redis
}

func TestRedisDedupeSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisDedupeSuite))
}

func (s *RedisDedupeSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = dedupe.NewRedis(s.redis.Client, time.Hour)
}

func (s *RedisDedupeSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisDedupeSuite) TestMarkReleaseCycle() {
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := s.store.Mark(ctx, "notification:dedupe:r1:DEADLINE_APPROACHING", now)
	s.Require().NoError(err)
	s.True(first)

	second, err := s.store.Mark(ctx, "notification:dedupe:r1:DEADLINE_APPROACHING", now.Add(time.Minute))
	s.Require().NoError(err)
	s.False(second)

	ttl, err := s.redis.Client.TTL(ctx, "notification:dedupe:r1:DEADLINE_APPROACHING").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)

	s.Require().NoError(s.store.Release(ctx, "notification:dedupe:r1:DEADLINE_APPROACHING"))
	again, err := s.store.Mark(ctx, "notification:dedupe:r1:DEADLINE_APPROACHING", now)
	s.Require().NoError(err)
	s.True(again)
}

func (s *RedisDedupeSuite) TestMarkExpiresOnScanClock() {
	ctx := context.Background()
	backfill := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	key := "notification:dedupe:r2:DEADLINE_APPROACHING"

	first, err := s.store.Mark(ctx, key, backfill)
	s.Require().NoError(err)
	s.True(first)

	inside, err := s.store.Mark(ctx, key, backfill.Add(30*time.Minute))
	s.Require().NoError(err)
	s.False(inside)

	after, err := s.store.Mark(ctx, key, backfill.Add(2*time.Hour))
	s.Require().NoError(err)
	s.True(after)
}

func (s *RedisDedupeSuite) TestZeroTTLNeverExpires() {
	ctx := context.Background()
	forever := dedupe.NewRedis(s.redis.Client, 0)
	key := "notification:dedupe:r3:DEADLINE_APPROACHING"

	first, err := forever.Mark(ctx, key, time.Now())
	s.Require().NoError(err)
	s.True(first)

	later, err := forever.Mark(ctx, key, time.Now().AddDate(10, 0, 0))
	s.Require().NoError(err)
	s.False(later)
}
