package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecscan"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import vectors from a text file and save them to the store",
		Long: `Import reads one vector per line in the form

    key freq v1 v2 ... vN

Blank lines and lines starting with '#' are skipped. Unless --append is
set, the stored map is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().Int("dim", 0, "vector dimension (0 = infer from the first row)")
	cmd.Flags().Bool("append", false, "add to the stored map instead of replacing it")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close() //nolint:errcheck

	in := io.Reader(cmd.InOrStdin())
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
		in = f
	}

	appendMode, _ := cmd.Flags().GetBool("append")
	ctx := cmd.Context()

	var added int
	err = readRows(in, func(r row) error {
		if s.vm == nil {
			dim := s.cfg.Dimension
			if dim == 0 {
				dim = len(r.vec)
			}
			if appendMode {
				if err := s.load(ctx, dim, true); err != nil {
					return err
				}
			} else if err := s.fresh(dim); err != nil {
				return err
			}
		}
		if err := s.vm.Add(r.key, r.freq, r.vec); err != nil {
			return fmt.Errorf("line %d: %w", r.line, err)
		}
		added++
		return nil
	})
	if err != nil {
		return err
	}
	if s.vm == nil {
		return errors.New("no vectors in input")
	}

	if err := s.vm.Save(ctx, s.store); err != nil {
		return fmt.Errorf("save map: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d vectors (dimension %d, %d total)\n", added, s.vm.Dim(), s.vm.Len())
	return nil
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <v1,v2,...>",
		Short: "Print the keys most similar to a query vector",
		Long: `Query scores every stored vector against the given vector and prints
the best matches with their cosine similarity. Components may be separated
by commas or passed as separate arguments.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseVector(strings.Join(args, ","))
			if err != nil {
				return err
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close() //nolint:errcheck

			if err := s.load(cmd.Context(), len(query), false); err != nil {
				return err
			}

			n, _ := cmd.Flags().GetInt("n")
			filter, _ := cmd.Flags().GetStringSlice("keys")

			var (
				keys   []string
				scores []float32
			)
			if len(filter) > 0 {
				keys, scores, err = s.vm.MostSimilarFiltered(query, n, filter)
			} else {
				keys, scores, err = s.vm.MostSimilar(query, n)
			}
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), keys, scores)
			return nil
		},
	}
	cmd.Flags().IntP("n", "n", 10, "number of results")
	cmd.Flags().StringSlice("keys", nil, "only consider these keys")
	return cmd
}

func newSimilarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <key>",
		Short: "Print the keys most similar to a stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close() //nolint:errcheck

			if err := s.load(cmd.Context(), 1, false); err != nil {
				return err
			}

			_, vec, err := s.vm.Get(args[0])
			if err != nil {
				return err
			}

			n, _ := cmd.Flags().GetInt("n")
			keys, scores, err := s.vm.MostSimilar(vec, n+1)
			if err != nil {
				return err
			}

			// Drop the key itself.
			outKeys, outScores := keys[:0:0], scores[:0:0]
			for i, key := range keys {
				if key == args[0] || len(outKeys) == n {
					continue
				}
				outKeys = append(outKeys, key)
				outScores = append(outScores, scores[i])
			}
			printResults(cmd.OutOrStdout(), outKeys, outScores)
			return nil
		},
	}
	cmd.Flags().IntP("n", "n", 10, "number of results")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the stored map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close() //nolint:errcheck

			ctx := cmd.Context()
			if err := s.load(ctx, 1, false); err != nil {
				return err
			}
			blobs, err := s.store.List(ctx, "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:   %s\n", s.cfg.Store.Backend)
			fmt.Fprintf(out, "dimension: %d\n", s.vm.Dim())
			fmt.Fprintf(out, "keys:      %d\n", s.vm.Len())
			fmt.Fprintf(out, "memory:    %d bytes\n", s.vm.Table().MemoryUsage())
			fmt.Fprintf(out, "blobs:     %s\n", strings.Join(blobs, ", "))
			return nil
		},
	}
}

func (s *session) fresh(dim int) error {
	opts, err := s.cfg.Options()
	if err != nil {
		return err
	}
	s.vm, err = vecscan.NewVectorMap(dim, opts...)
	return err
}

func printResults(w io.Writer, keys []string, scores []float32) {
	for i, key := range keys {
		fmt.Fprintf(w, "%s\t%.6f\n", key, scores[i])
	}
}

type row struct {
	line int
	key  string
	freq uint32
	vec  []float32
}

// readRows calls fn for every vector line of r.
func readRows(r io.Reader, fn func(row) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 3 {
			return fmt.Errorf("line %d: want key, frequency and at least one component", line)
		}
		freq, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: frequency: %w", line, err)
		}
		vec, err := parseComponents(fields[2:])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		if err := fn(row{line: line, key: fields[0], freq: uint32(freq), vec: vec}); err != nil {
			return err
		}
	}
	return sc.Err()
}

// parseVector parses components separated by commas and/or whitespace.
func parseVector(s string) ([]float32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, errors.New("empty vector")
	}
	return parseComponents(fields)
}

func parseComponents(fields []string) ([]float32, error) {
	vec := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		vec[i] = float32(v)
	}
	return vec, nil
}
