package pipeline

import (
	"context"
	"log/slog"
	"time"

	"icokit/internal/logging"
	"icokit/internal/services"
	"icokit/internal/textclean"
	"icokit/internal/textutil"
	"icokit/internal/vocab"
	"icokit/internal/workpool"
)

// Defaults applied when the corresponding Options field is zero.
const (
	DefaultMinFreq   = 2
	DefaultMinLength = 3
)

// Options configures a Processor.
type Options struct {
	Cleaning textclean.Options
	// Tokenizer defaults to textutil.WordTokenizer.
	Tokenizer Tokenizer
	// Workers bounds parallel cleaning and tokenization. Zero uses one
	// worker per CPU.
	Workers int
	// MinFreq and MinLength feed the vocabulary filter and are applied as
	// given: zero disables that check. Callers wanting the stock
	// thresholds pass DefaultMinFreq and DefaultMinLength.
	MinFreq   int
	MinLength int
	Logger    *slog.Logger
	// OnProgress is called after every finished item of a parallel stage.
	// Calls for one stage are serialized.
	OnProgress func(stage Stage, done, total int)
}

// Processor runs the cleaning pipeline. It holds no per-batch state and may
// be reused.
type Processor struct {
	cleaner    *textclean.Cleaner
	tokenizer  Tokenizer
	workers    int
	minFreq    int
	minLength  int
	logger     *slog.Logger
	onProgress func(Stage, int, int)
}

// New validates opts and builds a Processor.
func New(opts Options) (*Processor, error) {
	cleaner, err := textclean.New(opts.Cleaning)
	if err != nil {
		return nil, err
	}
	if opts.Workers < 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "pipeline", "options", "workers must not be negative", nil)
	}
	if opts.MinFreq < 0 || opts.MinLength < 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "pipeline", "options", "vocabulary thresholds must not be negative", nil)
	}
	p := &Processor{
		cleaner:    cleaner,
		tokenizer:  opts.Tokenizer,
		workers:    opts.Workers,
		minFreq:    opts.MinFreq,
		minLength:  opts.MinLength,
		logger:     logging.NewComponentLogger(opts.Logger, "pipeline"),
		onProgress: opts.OnProgress,
	}
	if p.tokenizer == nil {
		p.tokenizer = textutil.WordTokenizer{}
	}
	return p, nil
}

// Clean runs the text cleaner over items in parallel. The returned slice has
// one document per item, in input order.
func (p *Processor) Clean(ctx context.Context, items []Item) ([]Document, error) {
	stageCtx := services.WithStage(ctx, string(StageCleaned))
	results, err := workpool.Map(stageCtx, items, func(_ context.Context, item Item) (string, error) {
		return p.cleaner.Clean(item.Text)
	}, p.poolOptions(stageCtx, StageCleaned)...)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(items))
	for i, r := range results {
		docs[i] = Document{ID: items[i].ID, Stage: StageCleaned, Cleaned: r.Value}
		if r.Err != nil {
			p.fail(stageCtx, &docs[i], StageCleaned, r.Err)
		}
	}
	return docs, nil
}

// Tokenize splits every cleaned document in place. Failed documents are
// skipped.
func (p *Processor) Tokenize(ctx context.Context, docs []Document) error {
	stageCtx := services.WithStage(ctx, string(StageTokenized))
	pending := make([]int, 0, len(docs))
	for i := range docs {
		if docs[i].Stage == StageCleaned {
			pending = append(pending, i)
		}
	}

	results, err := workpool.Map(stageCtx, pending, func(_ context.Context, idx int) ([]string, error) {
		return p.tokenizer.Tokenize(docs[idx].Cleaned)
	}, p.poolOptions(stageCtx, StageTokenized)...)
	if err != nil {
		return err
	}

	for n, r := range results {
		doc := &docs[pending[n]]
		if r.Err != nil {
			p.fail(stageCtx, doc, StageTokenized, r.Err)
			continue
		}
		doc.Tokens = r.Value
		if doc.Tokens == nil {
			doc.Tokens = []string{}
		}
		doc.Stage = StageTokenized
	}
	return nil
}

// FilterTokens applies the vocabulary filter to every tokenized document.
// Frequencies are counted over those documents only.
func (p *Processor) FilterTokens(docs []Document) {
	idx := make([]int, 0, len(docs))
	seqs := make([][]string, 0, len(docs))
	for i := range docs {
		if docs[i].Stage == StageTokenized {
			idx = append(idx, i)
			seqs = append(seqs, docs[i].Tokens)
		}
	}
	filtered := vocab.Filter(seqs, p.minFreq, p.minLength)
	for n, i := range idx {
		docs[i].Tokens = filtered[n]
		docs[i].Stage = StageFiltered
	}
}

// Encode builds a dictionary from the filtered documents and stores each
// document's bag-of-words vector.
func (p *Processor) Encode(docs []Document) *vocab.Dictionary {
	var seqs [][]string
	for i := range docs {
		if docs[i].Stage == StageFiltered {
			seqs = append(seqs, docs[i].Tokens)
		}
	}
	dict := vocab.NewDictionary(seqs)
	for i := range docs {
		if docs[i].Stage != StageFiltered {
			continue
		}
		docs[i].BOW = dict.Doc2Bow(docs[i].Tokens)
		docs[i].Stage = StageEncoded
	}
	return dict
}

// Run executes all stages in order. Item failures are recorded on their
// documents; only an interrupt returns an error.
func (p *Processor) Run(ctx context.Context, items []Item) (*Result, error) {
	start := time.Now()
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("items", len(items)),
		logging.Int("min_freq", p.minFreq),
		logging.Int("min_length", p.minLength),
	)

	docs, err := p.Clean(ctx, items)
	if err != nil {
		return nil, p.interrupted(logger, StageCleaned, err)
	}
	if err := p.Tokenize(ctx, docs); err != nil {
		return nil, p.interrupted(logger, StageTokenized, err)
	}
	p.FilterTokens(docs)
	dict := p.Encode(docs)

	summary := Summary{
		Items:      len(docs),
		Vocabulary: dict.Len(),
		Duration:   time.Since(start),
	}
	for _, doc := range docs {
		if doc.Failed() {
			summary.Failed++
			continue
		}
		summary.Tokens += len(doc.Tokens)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("items", summary.Items),
		logging.Int("failed", summary.Failed),
		logging.Int("tokens", summary.Tokens),
		logging.Int("vocabulary", summary.Vocabulary),
		logging.Duration("duration", summary.Duration),
	}
	if summary.Failed > 0 {
		attrs = append(attrs, logging.Alert("item_failures"))
	}
	logger.Info("pipeline finished", logging.Args(attrs...)...)

	return &Result{Documents: docs, Dictionary: dict, Summary: summary}, nil
}

func (p *Processor) fail(ctx context.Context, doc *Document, stage Stage, err error) {
	doc.Err = services.Wrap(services.ErrItemProcessing, string(stage), doc.ID, "", err)
	itemCtx := services.WithItemID(ctx, doc.ID)
	logging.WarnWithContext(logging.WithContext(itemCtx, p.logger), "item failed", services.Kind(err),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "inspect the source text of this item"),
	)
	doc.Stage = StageFailed
}

func (p *Processor) interrupted(logger *slog.Logger, stage Stage, err error) error {
	logging.ErrorWithContext(logger, "pipeline interrupted", services.Kind(err),
		logging.String(logging.FieldStage, string(stage)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "rerun the batch; no results were kept"),
	)
	return err
}

func (p *Processor) poolOptions(ctx context.Context, stage Stage) []workpool.Option {
	sampler := logging.NewProgressSampler(10)
	logger := logging.WithContext(ctx, p.logger)
	return []workpool.Option{
		workpool.Workers(p.workers),
		workpool.OnDone(func(done, total int) {
			if sampler.ShouldLog(logging.Percent(done, total), string(stage)) {
				logger.Debug("stage progress",
					logging.String(logging.FieldEventType, "stage_progress"),
					logging.Int("done", done),
					logging.Int("total", total),
				)
			}
			if p.onProgress != nil {
				p.onProgress(stage, done, total)
			}
		}),
	}
}
