package dictionary

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

const tableName = "dictionary_item"

var itemColumns = []string{"id", "vocabulary_id", "language", "translation"}

// SQLDictStore keeps dictionary items in a single relational table. The
// same queries serve sqlite, postgres and mysql; only the expressions in
// sqlDialect vary.
type SQLDictStore struct {
	db      *sqlx.DB
	dialect sqlDialect
	sb      sq.StatementBuilderType
}

func NewSQLDictStore(db *sqlx.DB, dialect Dialect) (*SQLDictStore, error) {
	d, err := lookupDialect(dialect)
	if err != nil {
		return nil, err
	}
	return &SQLDictStore{
		db:      db,
		dialect: d,
		sb:      sq.StatementBuilder.PlaceholderFormat(d.placeholder),
	}, nil
}

var _ Store = &SQLDictStore{}

func (s *SQLDictStore) Init(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, path.Join("migrations", s.dialect.migrationsDir))
	if err != nil {
		return fmt.Errorf("failed to open %s migrations: %w", s.dialect.name, err)
	}
	provider, err := goose.NewProvider(s.dialect.goose, s.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return storeError(err, "apply %s migrations", s.dialect.name)
	}
	for _, r := range results {
		slog.Info("applied migration", "dialect", s.dialect.name, "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

func (s *SQLDictStore) InsertBatch(ctx context.Context, items []DictionaryItem) error {
	if len(items) == 0 {
		return nil
	}
	q := s.sb.Insert(tableName).Columns("vocabulary_id", "language", "translation")
	for _, it := range items {
		q = q.Values(it.VocabularyID, string(it.Language), it.Translation)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return storeError(err, "insert %d dictionary items", len(items))
	}
	return nil
}

func (s *SQLDictStore) DeleteAll(ctx context.Context) (int64, error) {
	query, args, err := s.sb.Delete(tableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storeError(err, "delete all dictionary items")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError(err, "count deleted dictionary items")
	}
	return n, nil
}

// DeleteVocabularies deletes in id chunks, bounded like inserts, inside one
// transaction.
func (s *SQLDictStore) DeleteVocabularies(ctx context.Context, vocabularyIDs []int64) (int64, error) {
	if len(vocabularyIDs) == 0 {
		return 0, nil
	}
	var deleted int64
	err := s.runInTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		for start := 0; start < len(vocabularyIDs); start += DefaultBatchSize {
			chunk := vocabularyIDs[start:min(start+DefaultBatchSize, len(vocabularyIDs))]
			query, args, err := s.sb.Delete(tableName).Where(sq.Eq{"vocabulary_id": chunk}).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build delete: %w", err)
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return storeError(err, "delete %d vocabularies", len(chunk))
			}
			n, err := res.RowsAffected()
			if err != nil {
				return storeError(err, "count deleted rows")
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *SQLDictStore) FindCandidates(ctx context.Context, term string, offset, limit int) (CandidatePage, error) {
	countQuery, args, err := s.sb.Select("COUNT(DISTINCT vocabulary_id)").
		From(tableName).
		Where(s.dialect.contains("translation", term)).
		ToSql()
	if err != nil {
		return CandidatePage{}, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return CandidatePage{}, storeError(err, "count candidates")
	}
	if total == 0 || offset >= total || limit <= 0 {
		return CandidatePage{Total: total}, nil
	}

	length := s.dialect.length("translation")
	// the shortest matching translation represents each vocabulary
	ranked := sq.Select(itemColumns...).
		Column(fmt.Sprintf("ROW_NUMBER() OVER (PARTITION BY vocabulary_id ORDER BY %s, language, id) AS match_rank", length)).
		From(tableName).
		Where(s.dialect.contains("translation", term))
	pageQuery, args, err := s.sb.Select(itemColumns...).
		FromSelect(ranked, "ranked").
		Where(sq.Eq{"match_rank": 1}).
		OrderBy(length, "vocabulary_id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return CandidatePage{}, fmt.Errorf("failed to build candidate query: %w", err)
	}

	var items []DictionaryItem
	if err := s.db.SelectContext(ctx, &items, pageQuery, args...); err != nil {
		return CandidatePage{}, storeError(err, "select candidates")
	}
	return CandidatePage{Total: total, Items: items}, nil
}

func (s *SQLDictStore) GetByVocabularyID(ctx context.Context, vocabularyID int64) ([]DictionaryItem, error) {
	query, args, err := s.sb.Select(itemColumns...).
		From(tableName).
		Where(sq.Eq{"vocabulary_id": vocabularyID}).
		OrderBy("language").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build vocabulary query: %w", err)
	}
	var items []DictionaryItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, storeError(err, "select vocabulary %d", vocabularyID)
	}
	return items, nil
}

func (s *SQLDictStore) ScanVocabularies(ctx context.Context, fn func(vocabularyID int64, items []DictionaryItem) error) error {
	query, args, err := s.sb.Select(itemColumns...).
		From(tableName).
		OrderBy("vocabulary_id", "language", "id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build scan query: %w", err)
	}
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return storeError(err, "scan dictionary items")
	}
	defer rows.Close()

	var group []DictionaryItem
	for rows.Next() {
		var it DictionaryItem
		if err := rows.StructScan(&it); err != nil {
			return storeError(err, "read dictionary item")
		}
		if len(group) > 0 && group[0].VocabularyID != it.VocabularyID {
			if err := fn(group[0].VocabularyID, group); err != nil {
				return err
			}
			group = nil
		}
		group = append(group, it)
	}
	if err := rows.Err(); err != nil {
		return storeError(err, "scan dictionary items")
	}
	if len(group) > 0 {
		return fn(group[0].VocabularyID, group)
	}
	return nil
}

func (s *SQLDictStore) Close() error {
	return s.db.Close()
}

// runInTx commits when fn succeeds and rolls back otherwise.
func (s *SQLDictStore) runInTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError(err, "begin transaction")
	}
	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeError(err, "commit transaction")
	}
	return nil
}
