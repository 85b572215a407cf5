package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/events"
	"github.com/niaga-platform/service-revenue-scanner/internal/scanner"
	"github.com/niaga-platform/service-revenue-scanner/internal/services"
)

type stubScanner struct {
	result scanner.ScanResult
	calls  int
}

func (s *stubScanner) Scan(ctx context.Context, session *shopifydomain.Session) scanner.ScanResult {
	s.calls++
	return s.result
}

type scanPublisher struct {
	err    error
	events []*events.ScanCompletedEvent
}

func (p *scanPublisher) PublishScanCompleted(event *events.ScanCompletedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func testSession(t *testing.T) *shopifydomain.Session {
	t.Helper()
	session, err := shopifydomain.NewSession(testShop, "token", time.Now().Add(time.Hour))
	require.NoError(t, err)
	return session
}

func TestScanServicePublishesSummary(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{result: scanner.ScanResult{
		Scanned: true,
		Metrics: scanner.ScanMetrics{
			Score:                82,
			Grade:                "B",
			EstimatedMonthlyLoss: 450,
			CartAnalytics:        scanner.CartAnalytics{AbandonedCarts: 3, PotentialRevenue: 210},
		},
	}}
	publisher := &scanPublisher{}
	svc := services.NewScanService(stub, publisher, nil)

	result := svc.Scan(context.Background(), testSession(t))
	require.Equal(t, stub.result, result)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	require.Equal(t, testShop, event.Shop)
	require.True(t, event.Scanned)
	require.Equal(t, 82, event.Score)
	require.Equal(t, "B", event.Grade)
	require.Equal(t, int64(450), event.EstimatedMonthlyLoss)
	require.Equal(t, 3, event.AbandonedCheckouts)
	require.Equal(t, int64(210), event.PotentialRevenue)
}

func TestScanServiceRunsFreshEveryTime(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{result: scanner.ScanResult{Scanned: true}}
	svc := services.NewScanService(stub, &scanPublisher{}, nil)

	svc.Scan(context.Background(), testSession(t))
	svc.Scan(context.Background(), testSession(t))
	require.Equal(t, 2, stub.calls)
}

func TestScanServiceIgnoresPublishFailures(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{result: scanner.ScanResult{Scanned: false, Error: "Shop not found"}}

	result := services.NewScanService(stub, &scanPublisher{err: errors.New("nats: timeout")}, nil).Scan(context.Background(), testSession(t))
	require.Equal(t, "Shop not found", result.Error)

	result = services.NewScanService(stub, nil, nil).Scan(context.Background(), testSession(t))
	require.False(t, result.Scanned)
}
