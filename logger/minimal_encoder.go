package logger

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// Everforest dark palette
const (
	colorFg      = "\x1b[38;5;223m"
	colorGreen   = "\x1b[38;5;108m"
	colorTime    = "\x1b[38;5;107m"
	colorAqua    = "\x1b[38;5;109m"
	colorOrange  = "\x1b[38;5;208m"
	colorYellow  = "\x1b[38;5;179m"
	colorRed     = "\x1b[38;5;167m"
	colorRedBg   = "\x1b[48;5;52m"
	colorYellowB = "\x1b[48;5;58m"
)

var encoderPool = buffer.NewPool()

// minimalEncoder is a compact console encoder.
// Format: "13:04:35  s.mcp  tool call  req=4f2c… query="press banca" 3ms"
type minimalEncoder struct {
	zapcore.Encoder
	color bool
}

func newMinimalEncoder(color bool) *minimalEncoder {
	return &minimalEncoder{
		// Key-less JSON encoder: it only accumulates fields added via With
		Encoder: zapcore.NewJSONEncoder(zapcore.EncoderConfig{}),
		color:   color,
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		color:   enc.color,
	}
}

func (enc *minimalEncoder) paint(color, s string) string {
	if !enc.color || s == "" {
		return s
	}
	return color + s + colorReset
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := encoderPool.Get()

	final.AppendString(enc.paint(colorTime, ent.Time.Format("15:04:05")))

	// Info is the common case and stays unlabeled
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(enc.levelString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(enc.paint(colorOrange, abbreviateName(ent.LoggerName)))
	}

	final.AppendString("  ")
	final.AppendString(enc.paint(colorFg, ent.Message))

	if ctx := enc.contextFields(); ctx != "" {
		final.AppendString("  ")
		final.AppendString(ctx)
	}

	if rendered := enc.renderFields(fields); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

func (enc *minimalEncoder) levelString(level zapcore.Level) string {
	label := level.CapitalString()
	if !enc.color {
		return label
	}
	switch level {
	case zapcore.DebugLevel:
		return colorAqua + label + colorReset
	case zapcore.WarnLevel:
		return colorBold + colorYellowB + colorYellow + label + colorReset
	default:
		return colorBold + colorRedBg + colorRed + label + colorReset
	}
}

// contextFields renders fields attached with Logger.With as key:value pairs.
func (enc *minimalEncoder) contextFields() string {
	buf, err := enc.Encoder.EncodeEntry(zapcore.Entry{}, nil)
	if err != nil {
		return ""
	}
	defer buf.Free()

	raw := strings.TrimSpace(buf.String())
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
	return raw
}

// abbreviateName shortens component names: mcpserver.tools -> m.tools
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// fieldValue renders a zap field without the key
func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", uint64(field.Integer))
	case zapcore.Float64Type:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(field.Integer)))
	case zapcore.Float32Type:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(field.Integer)))
	case zapcore.DurationType:
		return fmt.Sprintf("%dms", field.Integer/1e6)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok && err != nil {
			return err.Error()
		}
		return ""
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// renderFields prints every field. Known keys get a compact form, the rest
// fall back to key=value so nothing is silently dropped.
func (enc *minimalEncoder) renderFields(fields []zapcore.Field) string {
	var values []string

	for _, field := range fields {
		if field.Type == zapcore.SkipType {
			continue
		}
		val := fieldValue(field)
		if val == "" && field.Type == zapcore.ErrorType {
			continue
		}

		switch field.Key {
		case FieldRequestID:
			values = append(values, "req="+enc.paint(colorAqua, val))
		case FieldExerciseTemplateID:
			values = append(values, enc.paint(colorAqua, val))
		case FieldQuery, FieldTranslatedQuery:
			values = append(values, field.Key+"="+enc.paint(colorGreen, fmt.Sprintf("%q", val)))
		case FieldDurationMS:
			values = append(values, enc.paint(colorGreen, val)+"ms")
		case FieldError:
			values = append(values, "error="+enc.paint(colorRed, val))
		default:
			values = append(values, field.Key+"="+val)
		}
	}

	return strings.Join(values, " ")
}
