package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/rushteam/jembertrip/core"
)

// Columns 是目的地表的列名映射。默认值对应离线导入脚本写入的 destinasi 表。
type Columns struct {
	ID          string
	Name        string
	Category    string
	City        string
	Address     string
	Description string
	Image       string
	Embedding   string
}

// DefaultColumns 返回 destinasi 表的列名
func DefaultColumns() Columns {
	return Columns{
		ID:          "id",
		Name:        "nama_wisata",
		Category:    "kategori",
		City:        "kota",
		Address:     "alamat",
		Description: "deskripsi",
		Image:       "gambar",
		Embedding:   "embedding",
	}
}

// PostgresConfig 是 Postgres 数据源配置
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	Table           string
	Columns         Columns
	ConnMaxLifetime time.Duration
}

// DSN 构造 lib/pq 连接串
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode,
	)
}

// PostgresLoader 从 pgvector 表全量读取目的地，按 ID 升序作为语料顺序。
type PostgresLoader struct {
	DB      *sql.DB
	Table   string
	Columns Columns
}

// NewPostgresLoader 打开连接并 Ping 验证。
func NewPostgresLoader(ctx context.Context, cfg PostgresConfig) (*PostgresLoader, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresLoader{DB: db, Table: cfg.Table, Columns: cfg.Columns}, nil
}

func (l *PostgresLoader) Name() string { return "postgres" }

func (l *PostgresLoader) Load(ctx context.Context) ([]*core.Destination, error) {
	rows, err := l.DB.QueryContext(ctx, l.query())
	if err != nil {
		return nil, fmt.Errorf("query destinations: %w", err)
	}
	defer rows.Close()

	var out []*core.Destination
	for rows.Next() {
		var d core.Destination
		var category, city, address, description, image sql.NullString
		var vec sql.Null[pgvector.Vector]
		if err := rows.Scan(&d.ID, &d.Name, &category, &city, &address, &description, &image, &vec); err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		d.Category = category.String
		d.City = city.String
		d.Address = address.String
		d.Description = description.String
		d.Image = image.String
		emb, err := embeddingOf(d.ID, vec)
		if err != nil {
			return nil, err
		}
		d.Embedding = emb
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate destinations: %w", err)
	}
	return out, nil
}

// Close 关闭数据库连接
func (l *PostgresLoader) Close() error {
	return l.DB.Close()
}

func (l *PostgresLoader) query() string {
	cols := l.Columns
	if cols.ID == "" {
		cols = DefaultColumns()
	}
	table := l.Table
	if table == "" {
		table = "destinasi"
	}

	names := []string{cols.ID, cols.Name, cols.Category, cols.City, cols.Address, cols.Description, cols.Image, cols.Embedding}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(quoted, ", "),
		pq.QuoteIdentifier(table),
		pq.QuoteIdentifier(cols.ID),
	)
}

// embeddingOf 要求每一行都有向量；NULL 说明离线编码没跑完，整体加载失败。
func embeddingOf(id int64, vec sql.Null[pgvector.Vector]) ([]float64, error) {
	if !vec.Valid || len(vec.V.Slice()) == 0 {
		return nil, invalid("destination %d has no embedding", id)
	}
	return toFloat64(vec.V.Slice()), nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
