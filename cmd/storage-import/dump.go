package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/restaurant-mis/internal/domain/feedback"
	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/storage"
)

const bloomFPR = 0.001

// dump is the content of one exported browser storage file.
type dump struct {
	orders    []order.Order
	feedbacks []feedback.Feedback
}

// readDumps parses every file concurrently. Results keep the order of paths.
func readDumps(ctx context.Context, paths []string) ([]dump, error) {
	dumps := make([]dump, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := readDumpFile(path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			slog.Info("dump parsed",
				slog.String("file", path),
				slog.Int("orders", len(d.orders)),
				slog.Int("feedbacks", len(d.feedbacks)),
			)
			dumps[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dumps, nil
}

// readDumpFile opens path, transparently decompressing *.gz files.
func readDumpFile(path string) (dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return dump{}, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return dump{}, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return dump{}, errors.Wrap(err, "read")
	}
	return parseDump(data)
}

// parseDump decodes a {key: value} storage export. Values are either the
// collection array itself or, as browsers export them, a string holding the
// array's JSON. Unknown keys are ignored.
func parseDump(data []byte) (dump, error) {
	var d dump
	err := jx.DecodeBytes(data).Obj(func(dec *jx.Decoder, key string) error {
		if key != storage.OrdersKey && key != storage.FeedbacksKey {
			return dec.Skip()
		}
		doc, err := collectionBytes(dec)
		if err != nil {
			return errors.Wrapf(err, "decode %s", key)
		}
		switch key {
		case storage.OrdersKey:
			d.orders, err = order.Unmarshal(doc)
		case storage.FeedbacksKey:
			d.feedbacks, err = feedback.Unmarshal(doc)
		}
		if err != nil {
			return errors.Wrapf(err, "parse %s", key)
		}
		return nil
	})
	if err != nil {
		return dump{}, err
	}
	return d, nil
}

func collectionBytes(dec *jx.Decoder) ([]byte, error) {
	switch dec.Next() {
	case jx.String:
		s, err := dec.Str()
		return []byte(s), err
	case jx.Null:
		return nil, dec.Null()
	default:
		raw, err := dec.Raw()
		return []byte(raw), err
	}
}

// dedupe drops repeated IDs across dumps, keeping the first occurrence.
// Orders and feedback are deduplicated separately.
func dedupe(dumps []dump) ([]order.Order, []feedback.Feedback, int) {
	var orders []order.Order
	var feedbacks []feedback.Feedback
	for _, d := range dumps {
		orders = append(orders, d.orders...)
		feedbacks = append(feedbacks, d.feedbacks...)
	}
	orders, dupOrders := uniqueByID(orders, orderID)
	feedbacks, dupFeedbacks := uniqueByID(feedbacks, feedbackID)
	return orders, feedbacks, dupOrders + dupFeedbacks
}

func orderID(o order.Order) string { return o.ID }
func feedbackID(f feedback.Feedback) string { return f.ID }

func uniqueByID[T any](list []T, id func(T) string) ([]T, int) {
	seen := make(map[string]struct{}, len(list))
	out := make([]T, 0, len(list))
	for _, v := range list {
		k := id(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out, len(list) - len(out)
}

// filterNew returns the incoming records whose IDs are not in stored, and
// how many were dropped as already stored. Stored IDs are loaded into a
// bloom filter: an incoming ID it rejects is new, and only its positives
// are confirmed by a second pass over stored.
func filterNew[T any](stored, incoming []T, id func(T) string) ([]T, int) {
	if len(stored) == 0 || len(incoming) == 0 {
		return incoming, 0
	}
	filter := bloom.NewWithEstimates(uint(len(stored)), bloomFPR)
	for _, v := range stored {
		filter.AddString(id(v))
	}

	maybe := make(map[string]bool)
	for _, v := range incoming {
		if k := id(v); filter.TestString(k) {
			maybe[k] = false
		}
	}
	if len(maybe) == 0 {
		return incoming, 0
	}
	for _, v := range stored {
		if _, ok := maybe[id(v)]; ok {
			maybe[id(v)] = true
		}
	}

	out := make([]T, 0, len(incoming))
	for _, v := range incoming {
		if maybe[id(v)] {
			continue
		}
		out = append(out, v)
	}
	return out, len(incoming) - len(out)
}
