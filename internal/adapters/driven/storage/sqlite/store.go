package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/topicmap/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
)

// Topic kinds stored in the topics table.
const (
	kindMain     = "main"
	kindBourdieu = "bourdieu"
)

// Store is a SQLite-based storage for fitted models.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.topicmap/data/models.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".topicmap", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "models.db")

	// Pragmas in the DSN apply to every pooled connection, so cascading
	// deletes work regardless of which connection runs them.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ModelStore returns a ModelStore interface backed by this store.
func (s *Store) ModelStore() driven.ModelStore {
	return &modelStore{store: s}
}

// migrate runs all pending migrations, recording each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_models.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Model Store ====================

// modelStore implements driven.ModelStore.
type modelStore struct {
	store *Store
}

var _ driven.ModelStore = (*modelStore)(nil)

// SaveModel creates or replaces a model snapshot in one transaction.
func (m *modelStore) SaveModel(ctx context.Context, model *domain.Model) error {
	if model == nil || model.ID == "" {
		return fmt.Errorf("%w: model has no id", domain.ErrInvalidInput)
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	tx, err := m.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Replacing cascades to every child table.
	if _, err := tx.ExecContext(ctx, "DELETE FROM models WHERE id = ?", model.ID); err != nil {
		return fmt.Errorf("replacing model: %w", err)
	}

	var query sql.NullString
	if model.Bourdieu != nil {
		data, err := json.Marshal(queryRecord(model.Bourdieu.Query))
		if err != nil {
			return fmt.Errorf("marshalling bourdieu query: %w", err)
		}
		query = sql.NullString{String: string(data), Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO models (id, language, embedding_model, created_at, bourdieu_query)
		VALUES (?, ?, ?, ?, ?)
	`, model.ID, model.Language, model.EmbeddingModel, model.CreatedAt.UnixNano(), query); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	if err := insertTerms(ctx, tx, model.ID, model.Terms); err != nil {
		return err
	}
	if err := insertDocuments(ctx, tx, model.ID, model.Documents); err != nil {
		return err
	}
	if err := insertTopics(ctx, tx, model.ID, kindMain, model.Topics); err != nil {
		return err
	}
	if model.Bourdieu != nil {
		if err := insertBourdieu(ctx, tx, model.ID, model.Bourdieu); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing model: %w", err)
	}
	return nil
}

// LoadModel retrieves a model by ID.
func (m *modelStore) LoadModel(ctx context.Context, id string) (*domain.Model, error) {
	row := m.store.db.QueryRowContext(ctx, `
		SELECT id, language, embedding_model, created_at, bourdieu_query
		FROM models WHERE id = ?
	`, id)
	return m.load(ctx, row)
}

// LatestModel returns the most recently created model.
func (m *modelStore) LatestModel(ctx context.Context) (*domain.Model, error) {
	row := m.store.db.QueryRowContext(ctx, `
		SELECT id, language, embedding_model, created_at, bourdieu_query
		FROM models ORDER BY created_at DESC LIMIT 1
	`)
	return m.load(ctx, row)
}

// ListModels returns summaries, newest first.
func (m *modelStore) ListModels(ctx context.Context) ([]domain.ModelSummary, error) {
	rows, err := m.store.db.QueryContext(ctx, `
		SELECT m.id, m.created_at,
			(SELECT COUNT(*) FROM documents d WHERE d.model_id = m.id),
			(SELECT COUNT(*) FROM topics t WHERE t.model_id = m.id AND t.kind = ?)
		FROM models m ORDER BY m.created_at DESC
	`, kindMain)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer rows.Close()

	var out []domain.ModelSummary
	for rows.Next() {
		var sum domain.ModelSummary
		var created int64
		if err := rows.Scan(&sum.ID, &created, &sum.DocumentCount, &sum.TopicCount); err != nil {
			return nil, fmt.Errorf("scanning model summary: %w", err)
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteModel removes a model and everything it owns.
func (m *modelStore) DeleteModel(ctx context.Context, id string) error {
	res, err := m.store.db.ExecContext(ctx, "DELETE FROM models WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting model: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *modelStore) load(ctx context.Context, row *sql.Row) (*domain.Model, error) {
	var model domain.Model
	var created int64
	var query sql.NullString
	if err := row.Scan(&model.ID, &model.Language, &model.EmbeddingModel, &created, &query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning model: %w", err)
	}
	model.CreatedAt = time.Unix(0, created).UTC()

	db := m.store.db
	var err error
	if model.Terms, err = selectTerms(ctx, db, model.ID); err != nil {
		return nil, err
	}
	if model.Documents, err = selectDocuments(ctx, db, model.ID); err != nil {
		return nil, err
	}
	if model.Topics, err = selectTopics(ctx, db, model.ID, kindMain); err != nil {
		return nil, err
	}
	if query.Valid {
		var rec bourdieuQuery
		if err := json.Unmarshal([]byte(query.String), &rec); err != nil {
			return nil, fmt.Errorf("unmarshalling bourdieu query: %w", err)
		}
		if model.Bourdieu, err = selectBourdieu(ctx, db, &model, rec.domain()); err != nil {
			return nil, err
		}
	}
	return &model, nil
}

// ==================== Writers ====================

func insertTerms(ctx context.Context, tx *sql.Tx, modelID string, terms []domain.Term) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO terms (model_id, position, id, text, tag, count, doc_count, ngrams)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing term insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range terms {
		if _, err := stmt.ExecContext(ctx, modelID, i, t.ID, t.Text, string(t.Tag),
			t.Count, t.DocCount, t.NGrams); err != nil {
			return fmt.Errorf("saving term %q: %w", t.ID, err)
		}
	}
	return nil
}

func insertDocuments(ctx context.Context, tx *sql.Tx, modelID string, docs []domain.Document) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (model_id, position, id, content, term_ids, embedding, x, y, topic_id, rank, rank_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range docs {
		termIDs, err := marshalJSON(d.TermIDs)
		if err != nil {
			return err
		}
		rank, score := rankColumns(d.TopicRanking)
		if _, err := stmt.ExecContext(ctx, modelID, i, d.ID, d.Content, termIDs,
			float32SliceToBytes(d.Embedding), d.X, d.Y, d.TopicID, rank, score); err != nil {
			return fmt.Errorf("saving document %q: %w", d.ID, err)
		}
	}
	return nil
}

func insertTopics(ctx context.Context, tx *sql.Tx, modelID, kind string, topics []domain.Topic) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO topics (model_id, kind, position, id, name, generated_name, x_centroid, y_centroid,
			size, percent, term_ids, hull_x, hull_y, top_doc_ids, quadrant)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing topic insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range topics {
		cols := make([]string, 4)
		for j, v := range []any{t.TermIDs, t.Hull.XCoordinates, t.Hull.YCoordinates, t.TopDocIDs} {
			if cols[j], err = marshalJSON(v); err != nil {
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx, modelID, kind, i, t.ID, t.Name, t.GeneratedName,
			t.XCentroid, t.YCentroid, t.Size, t.Percent,
			cols[0], cols[1], cols[2], cols[3], string(t.Quadrant)); err != nil {
			return fmt.Errorf("saving topic %q: %w", t.ID, err)
		}
	}
	return nil
}

func insertBourdieu(ctx context.Context, tx *sql.Tx, modelID string, b *domain.BourdieuResult) error {
	for i, d := range b.Documents {
		rank, score := rankColumns(d.TopicRanking)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bourdieu_documents (model_id, position, id, x, y, topic_id, rank, rank_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, modelID, i, d.ID, d.X, d.Y, d.TopicID, rank, score); err != nil {
			return fmt.Errorf("saving projected document %q: %w", d.ID, err)
		}
	}
	if err := insertTopics(ctx, tx, modelID, kindBourdieu, b.Topics); err != nil {
		return err
	}
	for i, q := range b.Quadrants {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bourdieu_quadrants (model_id, position, quadrant, count, percent)
			VALUES (?, ?, ?, ?, ?)
		`, modelID, i, string(q.Quadrant), q.Count, q.Percent); err != nil {
			return fmt.Errorf("saving quadrant %q: %w", q.Quadrant, err)
		}
	}
	return nil
}

// ==================== Readers ====================

func selectTerms(ctx context.Context, db *sql.DB, modelID string) ([]domain.Term, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, text, tag, count, doc_count, ngrams
		FROM terms WHERE model_id = ? ORDER BY position
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	var out []domain.Term
	for rows.Next() {
		var t domain.Term
		var tag string
		if err := rows.Scan(&t.ID, &t.Text, &tag, &t.Count, &t.DocCount, &t.NGrams); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		t.Tag = domain.TermTag(tag)
		out = append(out, t)
	}
	return out, rows.Err()
}

func selectDocuments(ctx context.Context, db *sql.DB, modelID string) ([]domain.Document, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, content, term_ids, embedding, x, y, topic_id, rank, rank_score
		FROM documents WHERE model_id = ? ORDER BY position
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		var termIDs string
		var embedding []byte
		var rank, score sql.NullInt64
		if err := rows.Scan(&d.ID, &d.Content, &termIDs, &embedding, &d.X, &d.Y,
			&d.TopicID, &rank, &score); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if err := json.Unmarshal([]byte(termIDs), &d.TermIDs); err != nil {
			return nil, fmt.Errorf("unmarshalling term ids of %q: %w", d.ID, err)
		}
		d.Embedding = bytesToFloat32Slice(embedding)
		d.TopicRanking = rankFromColumns(d.TopicID, rank, score)
		out = append(out, d)
	}
	return out, rows.Err()
}

func selectTopics(ctx context.Context, db *sql.DB, modelID, kind string) ([]domain.Topic, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, generated_name, x_centroid, y_centroid, size, percent,
			term_ids, hull_x, hull_y, top_doc_ids, quadrant
		FROM topics WHERE model_id = ? AND kind = ? ORDER BY position
	`, modelID, kind)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	var out []domain.Topic
	for rows.Next() {
		var t domain.Topic
		var termIDs, hullX, hullY, topDocs, quadrant string
		if err := rows.Scan(&t.ID, &t.Name, &t.GeneratedName, &t.XCentroid, &t.YCentroid,
			&t.Size, &t.Percent, &termIDs, &hullX, &hullY, &topDocs, &quadrant); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		for _, f := range []struct {
			raw string
			dst any
		}{
			{termIDs, &t.TermIDs},
			{hullX, &t.Hull.XCoordinates},
			{hullY, &t.Hull.YCoordinates},
			{topDocs, &t.TopDocIDs},
		} {
			if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
				return nil, fmt.Errorf("unmarshalling topic %q: %w", t.ID, err)
			}
		}
		t.Quadrant = domain.Quadrant(quadrant)
		out = append(out, t)
	}
	return out, rows.Err()
}

// selectBourdieu rebuilds the projection. Content, terms and embeddings are
// joined from the model's documents by id.
func selectBourdieu(
	ctx context.Context,
	db *sql.DB,
	model *domain.Model,
	query domain.BourdieuQuery,
) (*domain.BourdieuResult, error) {
	byID := make(map[string]*domain.Document, len(model.Documents))
	for i := range model.Documents {
		byID[model.Documents[i].ID] = &model.Documents[i]
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, x, y, topic_id, rank, rank_score
		FROM bourdieu_documents WHERE model_id = ? ORDER BY position
	`, model.ID)
	if err != nil {
		return nil, fmt.Errorf("querying projected documents: %w", err)
	}
	defer rows.Close()

	result := &domain.BourdieuResult{Query: query}
	for rows.Next() {
		var id, topicID string
		var x, y float64
		var rank, score sql.NullInt64
		if err := rows.Scan(&id, &x, &y, &topicID, &rank, &score); err != nil {
			return nil, fmt.Errorf("scanning projected document: %w", err)
		}
		src, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: projected document %q missing from model", domain.ErrInvariantViolation, id)
		}
		d := src.Clone()
		d.X, d.Y, d.TopicID = x, y, topicID
		d.TopicRanking = rankFromColumns(topicID, rank, score)
		d.BourdieuDimensions = []domain.BourdieuDimension{
			{Continuum: query.XContinuum(), Distance: x},
			{Continuum: query.YContinuum(), Distance: y},
		}
		result.Documents = append(result.Documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result.Topics, err = selectTopics(ctx, db, model.ID, kindBourdieu); err != nil {
		return nil, err
	}

	qrows, err := db.QueryContext(ctx, `
		SELECT quadrant, count, percent
		FROM bourdieu_quadrants WHERE model_id = ? ORDER BY position
	`, model.ID)
	if err != nil {
		return nil, fmt.Errorf("querying quadrants: %w", err)
	}
	defer qrows.Close()
	for qrows.Next() {
		var q domain.QuadrantShare
		var name string
		if err := qrows.Scan(&name, &q.Count, &q.Percent); err != nil {
			return nil, fmt.Errorf("scanning quadrant: %w", err)
		}
		q.Quadrant = domain.Quadrant(name)
		result.Quadrants = append(result.Quadrants, q)
	}
	return result, qrows.Err()
}

// ==================== Helper Functions ====================

// bourdieuQuery is the persisted form of a projection frame.
type bourdieuQuery struct {
	XLeftWords   []string `json:"x_left_words"`
	XRightWords  []string `json:"x_right_words"`
	YTopWords    []string `json:"y_top_words"`
	YBottomWords []string `json:"y_bottom_words"`
	RadiusSize   float64  `json:"radius_size"`
}

func queryRecord(q domain.BourdieuQuery) bourdieuQuery {
	return bourdieuQuery{
		XLeftWords:   q.XLeftWords,
		XRightWords:  q.XRightWords,
		YTopWords:    q.YTopWords,
		YBottomWords: q.YBottomWords,
		RadiusSize:   q.RadiusSize,
	}
}

func (r bourdieuQuery) domain() domain.BourdieuQuery {
	return domain.BourdieuQuery{
		XLeftWords:   r.XLeftWords,
		XRightWords:  r.XRightWords,
		YTopWords:    r.YTopWords,
		YBottomWords: r.YBottomWords,
		RadiusSize:   r.RadiusSize,
	}
}

// marshalJSON encodes a slice column, writing "[]" for nil.
func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshalling column: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

func rankColumns(r *domain.TopicRanking) (rank, score sql.NullInt64) {
	if r == nil {
		return rank, score
	}
	return sql.NullInt64{Int64: int64(r.Rank), Valid: true}, sql.NullInt64{Int64: int64(r.Score), Valid: true}
}

func rankFromColumns(topicID string, rank, score sql.NullInt64) *domain.TopicRanking {
	if !rank.Valid {
		return nil
	}
	return &domain.TopicRanking{TopicID: topicID, Rank: int(rank.Int64), Score: int(score.Int64)}
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
