package kafkax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReadyCheck passes when any broker answers and, if topics are named, each of them has at least
// one partition. Consumers pass their roomsched topics so /readyz fails until they exist.
func ReadyCheck(brokers string, topics ...string) func(context.Context) error {
	list := SplitBrokers(brokers)
	return func(ctx context.Context) error {
		if len(list) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		var errs []error
		for _, addr := range list {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			err = checkTopics(conn, topics)
			_ = conn.Close()
			return err
		}
		return fmt.Errorf("no kafka broker reachable: %w", errors.Join(errs...))
	}
}

func checkTopics(conn *kafka.Conn, topics []string) error {
	if len(topics) == 0 {
		return nil
	}
	partitions, err := conn.ReadPartitions(topics...)
	if err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}
	return MissingTopics(topics, partitions)
}

// MissingTopics reports the topics that have no partition in partitions.
func MissingTopics(topics []string, partitions []kafka.Partition) error {
	seen := make(map[string]bool, len(partitions))
	for _, p := range partitions {
		seen[p.Topic] = true
	}
	var missing []string
	for _, t := range topics {
		if !seen[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("kafka topics missing: %v", missing)
	}
	return nil
}
