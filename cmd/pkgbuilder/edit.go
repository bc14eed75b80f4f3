package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dshills/pkgbuilder/internal/builder"
	"github.com/dshills/pkgbuilder/internal/catalog"
	"github.com/dshills/pkgbuilder/internal/editor"
	"github.com/dshills/pkgbuilder/internal/history"
	"github.com/dshills/pkgbuilder/internal/logging"
)

var (
	errQuit        = errors.New("quit")
	errUsage       = errors.New("usage")
	errNoCatalog   = errors.New("no catalog loaded")
	errUnknownItem = errors.New("not in catalog")
)

func newEditCmd(g *globals) *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a package document interactively",
		Long:  `edit reads commands from standard input, one per line. Type "help" for the command list.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("catalog") {
				g.cfg.Catalog.Path = catalogPath
			}

			cat, stop, err := openCatalog(ctx, g)
			if err != nil {
				return err
			}
			defer stop()

			r := newREPL(newSession(g, cat), cat, cmd.OutOrStdout())
			defer r.close()
			if len(args) == 1 {
				if err := r.load(args[0]); err != nil {
					return err
				}
			}
			return r.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to catalog TOML file (overrides catalog.path)")
	return cmd
}

// openCatalog loads the configured catalog and starts watching it when
// enabled. The returned stop func releases the watcher.
func openCatalog(ctx context.Context, g *globals) (*catalog.Memory, func(), error) {
	noop := func() {}
	path := g.cfg.Catalog.Path
	if path == "" {
		return nil, noop, nil
	}

	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, noop, err
	}
	if !g.cfg.Catalog.Watch {
		return cat, noop, nil
	}

	w, err := catalog.NewWatcher(cat, path,
		catalog.WithDebounce(g.cfg.Catalog.Debounce()),
		catalog.WithLogger(logging.WithComponent(g.logger, "catalog")),
	)
	if err != nil {
		return nil, noop, fmt.Errorf("watching catalog: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return nil, noop, err
	}
	return cat, func() { _ = w.Close() }, nil
}

// newSession creates the editing session. A nil mem gives a session with
// no catalog rather than one holding a nil *catalog.Memory.
func newSession(g *globals, mem *catalog.Memory) *editor.Session {
	var cat catalog.Catalog
	if mem != nil {
		cat = mem
	}
	return editor.NewSession(cat,
		editor.WithMaxEntries(g.cfg.History.MaxEntries),
		editor.WithLogger(logging.WithComponent(g.logger, "editor")),
	)
}

// repl executes editing commands against a session.
type repl struct {
	session *editor.Session
	catalog *catalog.Memory
	out     io.Writer

	dirty bool
	unsub func()
}

func newREPL(s *editor.Session, cat *catalog.Memory, out io.Writer) *repl {
	r := &repl{session: s, catalog: cat, out: out}
	sub := s.Subscribe(func(c history.Change[builder.Document]) {
		if c.Kind != history.ChangeReset {
			r.dirty = true
		}
	})
	r.unsub = sub.Unsubscribe
	return r
}

func (r *repl) close() {
	r.unsub()
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := r.exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (r *repl) exec(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch name {
	case "add-package":
		id, err := r.session.AddPackage(rest, builder.Position{})
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, id)

	case "add-course", "add-term", "add-grade":
		return r.add(name, args)

	case "connect":
		if len(args) != 2 {
			return fmt.Errorf("%w: connect <source> <target>", errUsage)
		}
		return r.session.Connect(ctx, args[0], args[1])

	case "disconnect":
		if len(args) != 2 {
			return fmt.Errorf("%w: disconnect <source> <target>", errUsage)
		}
		return r.session.Disconnect(builder.EdgeID(args[0], args[1]))

	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("%w: remove <id>", errUsage)
		}
		return r.session.Remove(args[0])

	case "move":
		if len(args) != 3 {
			return fmt.Errorf("%w: move <id> <x> <y>", errUsage)
		}
		pos, err := parsePosition(args[1:])
		if err != nil {
			return err
		}
		return r.session.Move(args[0], pos)

	case "rename":
		id, label, ok := strings.Cut(rest, " ")
		if !ok || strings.TrimSpace(label) == "" {
			return fmt.Errorf("%w: rename <id> <label>", errUsage)
		}
		return r.session.Rename(id, strings.TrimSpace(label))

	case "discount":
		return r.discount(args)

	case "set":
		path, raw, ok := strings.Cut(rest, " ")
		if !ok {
			return fmt.Errorf("%w: set <path> <value>", errUsage)
		}
		return r.session.SetField(path, parseValue(strings.TrimSpace(raw)))

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("%w: get <path>", errUsage)
		}
		raw, ok, err := r.session.Field(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(r.out, "(not set)")
			return nil
		}
		fmt.Fprintln(r.out, raw)

	case "undo":
		if !r.session.CanUndo() {
			fmt.Fprintln(r.out, "nothing to undo")
			return nil
		}
		r.session.Undo()

	case "redo":
		if !r.session.CanRedo() {
			fmt.Fprintln(r.out, "nothing to redo")
			return nil
		}
		r.session.Redo()

	case "status":
		h := r.session.History()
		fmt.Fprintf(r.out, "undo %d  redo %d  nodes %d  edges %d\n",
			len(h.Past), len(h.Future), len(h.Present.Nodes), len(h.Present.Edges))

	case "show":
		return r.session.Save(r.out)

	case "totals":
		return printTotals(r.out, r.session.Document())

	case "preview":
		return printPreview(r.out, r.session.Document())

	case "save":
		if len(args) != 1 {
			return fmt.Errorf("%w: save <file>", errUsage)
		}
		return r.save(args[0])

	case "load":
		if len(args) != 1 {
			return fmt.Errorf("%w: load <file>", errUsage)
		}
		return r.load(args[0])

	case "help":
		fmt.Fprint(r.out, helpText)

	case "quit", "exit":
		if r.dirty && rest != "!" {
			fmt.Fprintln(r.out, "unsaved changes; save first or use \"quit !\"")
			return nil
		}
		return errQuit

	default:
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

func (r *repl) add(kind string, args []string) error {
	if len(args) != 1 && len(args) != 3 {
		return fmt.Errorf("%w: %s <catalog id> [x y]", errUsage, kind)
	}
	if r.catalog == nil {
		return errNoCatalog
	}

	catalogID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid catalog id %q", args[0])
	}
	var pos builder.Position
	if len(args) == 3 {
		if pos, err = parsePosition(args[1:]); err != nil {
			return err
		}
	}

	var id string
	switch kind {
	case "add-course":
		c, ok := r.catalog.Course(catalogID)
		if !ok {
			return fmt.Errorf("course %d: %w", catalogID, errUnknownItem)
		}
		id, err = r.session.AddCourse(c, pos)
	case "add-term":
		t, ok := r.catalog.Term(catalogID)
		if !ok {
			return fmt.Errorf("term %d: %w", catalogID, errUnknownItem)
		}
		id, err = r.session.AddTerm(t, pos)
	default:
		gr, ok := r.catalog.Grade(catalogID)
		if !ok {
			return fmt.Errorf("grade %d: %w", catalogID, errUnknownItem)
		}
		id, err = r.session.AddGrade(gr, pos)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, id)
	return nil
}

func (r *repl) discount(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: discount <id> on|off [percentage]", errUsage)
	}

	var active bool
	switch args[1] {
	case "on":
		active = true
	case "off":
	default:
		return fmt.Errorf("%w: discount <id> on|off [percentage]", errUsage)
	}

	pct := 0.0
	if len(args) == 3 {
		v, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid percentage %q", args[2])
		}
		pct = v
	} else if raw, ok, _ := r.session.NodeField(args[0], "discountPercentage"); ok {
		pct = gjson.Parse(raw).Float()
	}
	return r.session.SetDiscount(args[0], active, pct)
}

func (r *repl) save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.session.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	r.dirty = false
	fmt.Fprintf(r.out, "saved %s\n", path)
	return nil
}

func (r *repl) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := r.session.ReadFrom(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	r.dirty = false
	return nil
}

func parsePosition(args []string) (builder.Position, error) {
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return builder.Position{}, fmt.Errorf("invalid x %q", args[0])
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return builder.Position{}, fmt.Errorf("invalid y %q", args[1])
	}
	return builder.Position{X: x, Y: y}, nil
}

// parseValue reads raw as JSON when it is valid JSON and as a plain string
// otherwise.
func parseValue(raw string) any {
	if gjson.Valid(raw) {
		return gjson.Parse(raw).Value()
	}
	return raw
}

const helpText = `Commands:
  add-package [label]            place the package node
  add-course <id> [x y]          place a catalog course
  add-term <id> [x y]            place a catalog term
  add-grade <id> [x y]           place a catalog grade
  connect <source> <target>      connect two nodes
  disconnect <source> <target>   remove a connection
  remove <id>                    delete a node and its connections
  move <id> <x> <y>              reposition a node
  rename <id> <label>            change a node label
  discount <id> on|off [pct]     change the package discount
  set <path> <value>             set a document field (JSON value)
  get <path>                     print a document field
  undo, redo                     step through history
  status                         show history depth
  show                           print the document
  totals, preview                print package totals or preview
  save <file>, load <file>       write or read a document
  quit [!]                       leave the editor
`
