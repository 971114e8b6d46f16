package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/bridge"
	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/compression"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/json"
	"github.com/ajitpratap0/colbridge/pkg/mmap"
	"github.com/ajitpratap0/colbridge/pkg/observability"
	"github.com/ajitpratap0/colbridge/pkg/pool"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

// loadFrame decodes the JSON document at path ("-" for stdin) into a frame.
// Files are memory mapped for the duration of the parse; a compression
// suffix such as .zst or .gz is decompressed first.
func loadFrame(cmd *cobra.Command, path string) (*bridge.DataFrame, error) {
	var doc any
	err := observability.Trace(cmd.Context(), "cli.load", func(context.Context) error {
		var err error
		if path == "-" {
			doc, err = json.DecodeHost(cmd.InOrStdin())
		} else {
			doc, err = decodeFile(path)
		}
		return err
	})
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeInvalidInput) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrorTypeInvalidInput, "failed to parse input").
			WithDetail("file", path)
	}
	return bridge.NewDataFrame(doc)
}

func decodeFile(path string) (any, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInvalidInput, "failed to open input").
			WithDetail("file", path)
	}
	defer r.Close()

	data := r.Bytes()
	if algo := compression.FromExtension(path); algo != compression.None {
		c, err := compression.NewCompressor(&compression.Config{Algorithm: algo})
		if err != nil {
			return nil, err
		}
		if data, err = c.Decompress(data); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInvalidInput, "failed to decompress input").
				WithDetail("file", path).
				WithDetail("compression", string(algo))
		}
	}
	return json.UnmarshalHost(data)
}

func newInspectCmd(a *app) *cobra.Command {
	var input string
	var head int
	var distinct, asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the shape, types and first rows of a JSON document",
		Long: `Inspect converts a JSON object of column name to values, or an array of
value arrays, into a frame and prints its shape, column types and first rows.

Inputs ending in a compression suffix (.gz, .sz, .lz4, .zst, .s2) are
decompressed first.

Example:
  colbridge inspect --input data.json --head 5
  colbridge inspect --input data.json.zst --distinct`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			_, span := observability.StartSpan(cmd.Context(), "cli.inspect")
			defer func() { span.End(err) }()
			span.SetAttribute("input", input)

			df, err := loadFrame(cmd, input)
			if err != nil {
				return err
			}
			defer df.Release()

			if distinct {
				unique, err := df.DropDuplicates(nil)
				if err != nil {
					return err
				}
				defer unique.Release()
				df = unique
			}

			h, w := df.Shape()
			a.log.Info("frame loaded", zap.Int("height", h), zap.Int("width", w))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "shape: (%d, %d)\n", h, w)
			dtypes := df.DTypes()
			for i, name := range df.Columns() {
				fmt.Fprintf(out, "  %s: %s\n", name, dtypes[i])
			}
			if asJSON {
				doc, err := df.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, doc)
				return nil
			}
			preview := df.Frame().Head(head)
			defer preview.Release()
			fmt.Fprintln(out, preview.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to the JSON input, or - for stdin (required)")
	cmd.Flags().IntVar(&head, "head", 10, "Number of rows to print")
	cmd.Flags().BoolVar(&distinct, "distinct", false, "Drop duplicate rows before printing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print every row as a JSON object of column name to values")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newEncodeCmd(a *app) *cobra.Command {
	var input, column, output, dtype, algo string
	var strict bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Write one column as a raw little-endian typed buffer",
		Long: `Encode converts one column of a JSON document to a typed buffer and writes
its bytes, optionally compressed. Only i8, i16, i32, u8, u16, u32, f32 and f64
columns have a typed buffer.

Without --out the buffer is written next to the input as <column>.bin plus
the compression suffix.

Example:
  colbridge encode --input data.json --column price --dtype f32 --out price.bin --compress zstd`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			_, span := observability.StartSpan(cmd.Context(), "cli.encode")
			defer func() { span.End(err) }()
			span.SetAttribute("column", column)

			algorithm, err := compression.ParseAlgorithm(algo)
			if err != nil {
				return err
			}

			df, err := loadFrame(cmd, input)
			if err != nil {
				return err
			}
			defer df.Release()

			s, err := df.GetColumn(column)
			if err != nil {
				return err
			}
			defer s.Release()

			if dtype != "" {
				dt, ok := schema.ParseName(dtype)
				if !ok || dt == schema.Null {
					return errors.Newf(errors.ErrorTypeInvalidArgument, "unknown dtype %q", dtype)
				}
				cast, err := s.Cast(dt.Code(), strict)
				if err != nil {
					return err
				}
				defer cast.Release()
				s = cast
			}

			buf, err := s.ToArray()
			if err != nil {
				return err
			}
			if _, generic := buf.([]any); generic {
				return errors.Newf(errors.ErrorTypeUnsupportedType,
					"column %q has type %s, which has no typed buffer", column, s.DType())
			}

			if output == "" {
				output = defaultOutput(input, column, algorithm)
			}
			n, err := writeBuffer(output, buf, algorithm)
			if err != nil {
				return err
			}
			a.log.Info("column encoded",
				zap.String("column", column),
				zap.String("dtype", s.DType()),
				zap.Int("values", s.Len()),
				zap.Int("bytes", n),
				zap.String("compression", string(algorithm)),
				zap.String("out", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to the JSON input, or - for stdin (required)")
	cmd.Flags().StringVar(&column, "column", "", "Column to encode (required)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (default <column>.bin plus the compression suffix, next to the input)")
	cmd.Flags().StringVar(&dtype, "dtype", "", "Cast the column to this type first (i8, i16, i32, u8, u16, u32, f32, f64)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail the cast instead of truncating or nulling values")
	cmd.Flags().StringVar(&algo, "compress", "none", "Compression: "+algorithmNames())
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func algorithmNames() string {
	names := make([]string, len(compression.Algorithms))
	for i, a := range compression.Algorithms {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

// defaultOutput names the dump after the column, next to the input file.
func defaultOutput(input, column string, algo compression.Algorithm) string {
	dir := "."
	if input != "-" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, column+".bin"+algo.Extension())
}

// writeBuffer writes buf's values to path, compressed with algo, and returns
// the uncompressed byte count.
func writeBuffer(path string, buf any, algo compression.Algorithm) (int, error) {
	c, err := compression.NewCompressor(&compression.Config{Algorithm: algo, Level: compression.Default})
	if err != nil {
		return 0, err
	}

	size := binary.Size(buf)
	raw := pool.Buffers.Get(size)
	defer pool.Buffers.Put(raw)
	if _, err := binary.Encode(raw, binary.LittleEndian, buf); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode buffer")
	}
	data, err := c.Compress(raw)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeInternal, "failed to compress buffer").
			WithDetail("compression", string(algo))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeInternal, "failed to write output").WithDetail("file", path)
	}
	return size, nil
}

func newExportCmd(a *app) *cobra.Command {
	var input, output, ipcCompression string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON document as an Arrow IPC file",
		Long: `Export converts a JSON document to a frame and writes it as an Arrow IPC
file, one record batch per chunk.

Example:
  colbridge export --input data.json --out data.arrow --ipc-compression zstd`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			_, span := observability.StartSpan(cmd.Context(), "cli.export")
			defer func() { span.End(err) }()

			opts, err := ipcOptions(ipcCompression)
			if err != nil {
				return err
			}

			df, err := loadFrame(cmd, input)
			if err != nil {
				return err
			}
			defer df.Release()

			records, err := writeIPC(output, df.Frame(), opts...)
			if err != nil {
				return err
			}
			h, w := df.Shape()
			a.log.Info("frame exported",
				zap.String("out", output),
				zap.Int("height", h),
				zap.Int("width", w),
				zap.Int("records", records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to the JSON input, or - for stdin (required)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output Arrow IPC file (required)")
	cmd.Flags().StringVar(&ipcCompression, "ipc-compression", "none", "Body compression: none, lz4 or zstd")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func ipcOptions(name string) ([]ipc.Option, error) {
	switch compression.Algorithm(name) {
	case compression.None, "":
		return nil, nil
	case compression.LZ4:
		return []ipc.Option{ipc.WithLZ4()}, nil
	case compression.Zstd:
		return []ipc.Option{ipc.WithZstd()}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeInvalidArgument, "IPC compression must be none, lz4 or zstd, got %q", name)
	}
}

// writeIPC writes f to path as an Arrow IPC file and returns the number of
// record batches written.
func writeIPC(path string, f *columnar.Frame, opts ...ipc.Option) (int, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create output").WithDetail("file", path)
	}
	defer out.Close()

	tbl := f.Table()
	defer tbl.Release()

	w, err := ipc.NewFileWriter(out, append(opts, ipc.WithSchema(tbl.Schema()))...)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeInternal, "failed to start IPC file")
	}

	tr := array.NewTableReader(tbl, -1)
	defer tr.Release()
	records := 0
	for tr.Next() {
		if err := w.Write(tr.Record()); err != nil {
			_ = w.Close()
			return records, errors.Wrap(err, errors.ErrorTypeInternal, "failed to write record batch")
		}
		records++
	}
	if err := w.Close(); err != nil {
		return records, errors.Wrap(err, errors.ErrorTypeInternal, "failed to finish IPC file")
	}
	return records, out.Close()
}
