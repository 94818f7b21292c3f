package posts

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/imadgeboyega/kiekky-feed/internal/metrics"
)

// Publisher periodically makes scheduled posts public once their time has come
type Publisher struct {
	repo Repository
	spec string
	now  func() time.Time
}

func NewPublisher(repo Repository, spec string) *Publisher {
	return &Publisher{repo: repo, spec: spec, now: time.Now}
}

// Start runs until ctx is cancelled
func (p *Publisher) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(p.spec, func() { p.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid publisher schedule %q: %w", p.spec, err)
	}

	log.Printf("Starting scheduled post publisher (%s)", p.spec)
	p.RunOnce(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("Stopping scheduled post publisher")
	return nil
}

func (p *Publisher) RunOnce(ctx context.Context) int64 {
	start := time.Now()
	n, err := p.repo.PublishDue(ctx, p.now())
	if err != nil {
		log.Printf("Failed to publish scheduled posts: %v", err)
		return 0
	}

	metrics.RecordPublished(n)
	if n > 0 {
		log.Printf("Published %d scheduled posts in %v", n, time.Since(start))
	}
	return n
}
