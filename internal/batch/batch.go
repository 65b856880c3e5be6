package batch

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Budget は1回の一括解決呼び出しで行うプロパティ解決の上限。
const Budget = 50

// ErrLengthMismatch は一括解決が受け取った件数と異なる件数を返したことを表す。
var ErrLengthMismatch = errors.New("解決結果の件数が一致しません")

// Record は一括解決の対象。解決が必要なプロパティの数を返す。
type Record interface {
	PropertyCount() int
}

// Chunk は入力の連続した範囲[Start, End)。
type Chunk struct {
	Start int
	End   int
}

// Len は範囲の件数を返す。
func (c Chunk) Len() int {
	return c.End - c.Start
}

// ChunkFunc は1つのチャンクを一括解決する。
// 入力と同じ件数・同じ順序で結果を返す必要がある。
type ChunkFunc[T any] func(ctx context.Context, chunk []T) ([]T, error)

// Result は1件の解決結果。Errが非nilの場合、Recordは未解決の入力のまま。
type Result[T any] struct {
	Record T
	Err    error
}

// Plan はn件、1件あたり最大maxProps個のプロパティを解決する分割を決める。
//
// 呼び出し回数はceil(maxProps*n/Budget)で、各チャンクはfloor(n/回数)件、
// 余りは最後のチャンクに含める。回数がnを超える場合は1件ずつに分ける。
// maxPropsが0でもn>0なら1回にまとめる。nが0の場合は空。
func Plan(n, maxProps int) []Chunk {
	if n <= 0 {
		return nil
	}
	if maxProps < 0 {
		maxProps = 0
	}

	batches := (maxProps*n + Budget - 1) / Budget
	batches = max(batches, 1)
	batches = min(batches, n)
	size := n / batches

	chunks := make([]Chunk, batches)
	for i := range chunks {
		chunks[i] = Chunk{Start: i * size, End: (i + 1) * size}
	}
	chunks[batches-1].End = n
	return chunks
}

// Resolve はレコードをPlanに従って分割し、全チャンクを並行に解決する。
//
// 全チャンクの完了を待ってから返し、結果は入力と同じ件数・同じ順序になる。
// 失敗したチャンクは他のチャンクを止めず、そのレコードはErrを持ち元の値のまま残る。
func Resolve[T Record](ctx context.Context, records []T, fn ChunkFunc[T], logger *zap.Logger) []Result[T] {
	maxProps := 0
	for _, r := range records {
		maxProps = max(maxProps, r.PropertyCount())
	}
	chunks := Plan(len(records), maxProps)
	results := make([]Result[T], len(records))

	logger.Debug("一括解決を開始",
		zap.Int("records", len(records)),
		zap.Int("max_props", maxProps),
		zap.Int("chunks", len(chunks)),
	)

	// 各goroutineは自分の範囲のスロットだけに書き込む
	var g errgroup.Group
	for i, c := range chunks {
		g.Go(func() error {
			part := records[c.Start:c.End]
			resolved, err := fn(ctx, slices.Clone(part))
			if err == nil && len(resolved) != len(part) {
				err = fmt.Errorf("%w: %d件中%d件", ErrLengthMismatch, len(part), len(resolved))
			}
			if err != nil {
				logger.Warn("チャンクの解決に失敗",
					zap.Int("chunk", i),
					zap.Int("start", c.Start),
					zap.Int("size", c.Len()),
					zap.Error(err),
				)
				chunkErr := fmt.Errorf("チャンク%d: %w", i, err)
				for j, r := range part {
					results[c.Start+j] = Result[T]{Record: r, Err: chunkErr}
				}
				return nil
			}
			for j, r := range resolved {
				results[c.Start+j] = Result[T]{Record: r}
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Records は結果からレコードだけを取り出す。失敗したレコードは未解決の値のまま含む。
func Records[T any](results []Result[T]) []T {
	out := make([]T, len(results))
	for i, r := range results {
		out[i] = r.Record
	}
	return out
}

// Failed は失敗したレコードの数を返す。
func Failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
