// Package logger 是基于 log/slog 的结构化日志。
//
// 请求级字段（request_id、trace_id、推荐场景、锚点目的地等）挂在 context 上，
// 由 contextHandler 在输出时追加，调用方只需传 ctx。
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// ContextKey 是请求级日志字段名
type ContextKey string

const (
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"

	// SceneKey 推荐场景：search / feed / similar
	SceneKey ContextKey = "scene"
	// DestinationKey 相似推荐的锚点目的地 ID
	DestinationKey ContextKey = "destination_id"
)

type fieldsKey struct{}

var defaultLogger atomic.Pointer[slog.Logger]

// Init 初始化日志器，输出到标准输出
func Init(level string, format string) {
	InitWithWriter(os.Stdout, level, format)
}

// InitWithWriter 指定输出目标，测试中用于捕获日志
func InitWithWriter(w io.Writer, level string, format string) {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}

	var base slog.Handler
	if strings.EqualFold(format, "json") {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	l := slog.New(contextHandler{base})
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lv
}

// Default 返回默认日志器，未初始化时使用 info/json。
func Default() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	Init("info", "json")
	return defaultLogger.Load()
}

// WithContext 在 ctx 上追加一个日志字段，同名字段以最后一次为准。
func WithContext(ctx context.Context, key ContextKey, value any) context.Context {
	prev := contextFields(ctx)
	next := make([]slog.Attr, 0, len(prev)+1)
	for _, a := range prev {
		if a.Key != string(key) {
			next = append(next, a)
		}
	}
	next = append(next, slog.Any(string(key), value))
	return context.WithValue(ctx, fieldsKey{}, next)
}

// WithScene 标记当前请求所属的推荐场景
func WithScene(ctx context.Context, scene string) context.Context {
	return WithContext(ctx, SceneKey, scene)
}

func contextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fs, _ := ctx.Value(fieldsKey{}).([]slog.Attr)
	return fs
}

// FromContext 返回绑定了 ctx 字段的 Logger，适合在同一 ctx 下连续打日志。
func FromContext(ctx context.Context) *slog.Logger {
	fs := contextFields(ctx)
	if len(fs) == 0 {
		return Default()
	}
	args := make([]any, len(fs))
	for i, a := range fs {
		args[i] = a
	}
	return Default().With(args...)
}

// contextHandler 在输出前追加 ctx 上的请求级字段
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if fs := contextFields(ctx); len(fs) > 0 {
		r.AddAttrs(fs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// emit 以调用方位置作为 source 输出一条日志
func emit(ctx context.Context, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	l := Default()
	if !l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // runtime.Callers, emit, Info/Warn/...
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}

func Info(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args...)
}

// Error 记录错误日志，err 非 nil 时追加 error 字段
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	emit(ctx, slog.LevelError, msg, args...)
}

// Fatal 记录错误日志后退出进程
func Fatal(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	emit(ctx, slog.LevelError, msg, args...)
	os.Exit(1)
}
