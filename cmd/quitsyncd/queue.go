package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/config"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/logging"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/network"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/storage"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/sync/queue"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/tracker"
)

func newQueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show pending offline operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, closeStore, err := openQueue()
			if err != nil {
				return err
			}
			defer closeStore()

			items := q.PeekAll()
			if len(items) == 0 {
				fmt.Println("queue is empty")
				return nil
			}
			for i, item := range items {
				fmt.Printf("%3d  %s  %-16s  %s\n",
					i+1,
					item.Timestamp.Format(time.RFC3339),
					item.Payload.Operation(),
					item.ID,
				)
			}
			return nil
		},
	}
}

func newRecordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Record one craving urge (queued, synced by the daemon)",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, closeStore, err := openQueue()
			if err != nil {
				return err
			}
			defer closeStore()

			// Craving records always go through the queue, so the
			// monitor state here is irrelevant.
			monitor := network.NewMonitor(network.Config{Initial: network.StateOffline})
			intents := tracker.NewIntents(q, monitor)
			intents.QueueCravingRecord()

			fmt.Printf("craving recorded, %d operation(s) pending\n", q.Len())
			return nil
		},
	}
}

func openQueue() (*queue.OfflineQueue, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	// CLI one-shots keep the log out of stdout
	logging.Init(io.Discard, cfg.App.LogLevel)
	store, err := storage.Open(cfg.App.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return queue.New(store), func() { store.Close() }, nil
}
