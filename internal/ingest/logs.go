package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	"feeManager/internal/model"
)

// eachLine calls fn with every non-blank line of a raw-log JSONL file.
func eachLine(ctx context.Context, inputPath string, fn func(line []byte) error) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}

// checkpoint wraps an optional StateStore. Saves ignore caller cancellation
// so an interrupted run still records what it already wrote.
type checkpoint struct {
	store StateStore
}

func (c checkpoint) load(ctx context.Context) (model.LogPosition, bool, error) {
	if c.store == nil {
		return model.LogPosition{}, false, nil
	}
	return c.store.Load(ctx)
}

func (c checkpoint) save(ctx context.Context, pos model.LogPosition) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Save(context.WithoutCancel(ctx), pos); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", pos, err)
	}
	return nil
}
