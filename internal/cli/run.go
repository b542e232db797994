package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/kode4food/argyll/wizard/internal/definition"
	"github.com/kode4food/argyll/wizard/internal/events"
	"github.com/kode4food/argyll/wizard/internal/persist"
	"github.com/kode4food/argyll/wizard/internal/script"
	"github.com/kode4food/argyll/wizard/internal/snapshot"
	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/flow"
	"github.com/kode4food/argyll/wizard/pkg/log"
	"github.com/kode4food/argyll/wizard/pkg/session"
	"github.com/kode4food/argyll/wizard/pkg/util"
)

type (
	// RunOptions holds flags for the run command
	RunOptions struct {
		*RootOptions
		Sets       []string
		Persist    bool
		Snapshot   string
		Restore    string
		MaxSteps   int
		Events     []string
		EventFlows []string
	}

	assignment struct {
		name api.Name
		raw  string
	}
)

const DefaultMaxSteps = 1000

var (
	ErrInvalidAssignment = errors.New("assignment must be name=value")
	ErrTooManySteps      = errors.New("flow did not complete")
	ErrUnknownEventType  = errors.New("unknown event type")
)

var eventTypes = util.SetOf(
	flow.EventStateChanged,
	flow.EventActivitySelected,
	flow.EventMorphed,
	flow.EventRequestEnded,
)

// NewRunCommand creates the run command
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file> <flow>",
		Short: "Drive a declared flow to completion",
		Long: `Start a flow declared in a YAML definition file and advance it one
activity at a time until the session has nothing left to run.

Values given with --set are applied as soon as the current activity can see
the named property. Values are JSON; anything that is not valid JSON is
taken as a string.

Example:
  wizard run flows.yaml checkout --set price=9.5 --set card=4111
  wizard run flows.yaml checkout --persist --snapshot session-1
  wizard run flows.yaml checkout --events state_changed --event-flows survey`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil,
		"property value as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Persist, "persist", false,
		"write persisted properties to Redis")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "",
		"save the session's values under this id when done")
	cmd.Flags().StringVar(&opts.Restore, "restore", "",
		"load the session's values from this snapshot id before starting")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", DefaultMaxSteps,
		"give up after this many activities")
	cmd.Flags().StringSliceVar(&opts.Events, "events", nil,
		"log only these event types (state_changed, activity_selected, "+
			"morphed, request_ended)")
	cmd.Flags().StringSliceVar(&opts.EventFlows, "event-flows", nil,
		"log only events of these flow types")

	return cmd
}

func runFlow(opts *RunOptions, path, flowType string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := opts.Config

	pending, err := parseAssignments(opts.Sets)
	if err != nil {
		return err
	}
	filter, err := opts.eventFilter()
	if err != nil {
		return err
	}

	var client *redis.Client
	if opts.needsRedis() {
		client = redis.NewClient(cfg.Redis.Options())
		defer func() { _ = client.Close() }()
	}

	persister := discard
	if opts.Persist {
		persister, err = persist.NewRedis(client, cfg.Redis.KeyPrefix())
		if err != nil {
			return err
		}
	}

	src, err := definition.LoadFile(path,
		definition.WithCacheSize(cfg.DefinitionCacheSize),
		definition.WithScripts(script.NewEnv(cfg.ScriptCacheSize)),
		definition.WithPersister(persister),
	)
	if err != nil {
		return err
	}

	queue := events.NewQueue(logEvents, events.DefaultBatchSize, filter)
	queue.Start()
	defer queue.Flush()

	reg := session.NewRegistry(src, nil,
		session.WithListener(queue.Listener()),
	)

	snaps, err := opts.snapshotStore(ctx, client)
	if err != nil {
		return err
	}
	if snaps != nil {
		defer func() { _ = snaps.Close() }()
	}
	if opts.Restore != "" {
		if err := snapshot.Restore(ctx, snaps, opts.Restore,
			reg.Store()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	last, _, err := reg.StartFlow(ctx, flowType, nil)
	if err != nil {
		return err
	}

	for step := 0; ; step++ {
		inst, ok := reg.Current()
		if !ok {
			break
		}
		if step >= opts.MaxSteps {
			return fmt.Errorf("%w: %d steps", ErrTooManySteps, step)
		}
		last = inst

		if pending, err = apply(inst, pending); err != nil {
			return err
		}
		if a, ok := inst.CurrentActivity(); ok {
			fmt.Fprintf(out, "%s/%s: %s\n", inst.FlowType(), a.Name,
				inst.Page())
		}
		if err := inst.Next(ctx); err != nil {
			printFailures(out, err)
			return err
		}
	}

	fmt.Fprintf(out, "%s %s: %s\n", last.FlowType(), last.State(),
		last.OutcomePage())
	for _, a := range pending {
		slog.Warn("Value never applied", log.Property(a.name))
	}
	for _, e := range reg.Store().Export() {
		fmt.Fprintf(out, "  %s = %s\n", e.Key, e.Value)
	}

	if opts.Snapshot != "" {
		if err := snapshot.Capture(ctx, snaps, opts.Snapshot,
			reg.Store()); err != nil {
			return err
		}
		fmt.Fprintf(out, "snapshot saved: %s\n", opts.Snapshot)
	}
	return nil
}

// eventFilter combines the event flags. Without any, every event is
// logged
func (o *RunOptions) eventFilter() (events.Filter, error) {
	var filters []events.Filter
	if len(o.Events) > 0 {
		types := make([]flow.EventType, 0, len(o.Events))
		for _, name := range o.Events {
			typ := flow.EventType(name)
			if !eventTypes.Contains(typ) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, name)
			}
			types = append(types, typ)
		}
		filters = append(filters, events.FilterTypes(types...))
	}
	if len(o.EventFlows) > 0 {
		byFlow := make([]events.Filter, 0, len(o.EventFlows))
		for _, flowType := range o.EventFlows {
			byFlow = append(byFlow, events.FilterFlowType(flowType))
		}
		filters = append(filters, events.OrFilters(byFlow...))
	}
	if len(filters) == 0 {
		return nil, nil
	}
	return events.AndFilters(filters...), nil
}

func (o *RunOptions) needsRedis() bool {
	if o.Persist {
		return true
	}
	usesSnapshots := o.Snapshot != "" || o.Restore != ""
	return usesSnapshots && o.Config.SnapshotBucketURL == ""
}

func (o *RunOptions) snapshotStore(
	ctx context.Context, client *redis.Client,
) (snapshot.Store, error) {
	if o.Snapshot == "" && o.Restore == "" {
		return nil, nil
	}
	if url := o.Config.SnapshotBucketURL; url != "" {
		return snapshot.NewBlobStore(ctx, url, o.Config.SnapshotPrefix)
	}
	return snapshot.NewRedisStore(client, o.Config.Redis.KeyPrefix()), nil
}

// apply sets every pending value the instance can see, returning the ones
// it cannot
func apply(inst *flow.Instance, pending []assignment) ([]assignment, error) {
	var res []assignment
	for _, a := range pending {
		err := inst.SetRaw(a.name, a.raw)
		if errors.Is(err, api.ErrNotDeserializable) {
			quoted, _ := json.Marshal(a.raw)
			err = inst.SetRaw(a.name, string(quoted))
		}
		switch {
		case errors.Is(err, api.ErrPropertyNotFound):
			res = append(res, a)
		case err != nil:
			return nil, err
		default:
			slog.Debug("Value applied",
				log.FlowKey(inst.LookupKey()),
				log.Property(a.name))
		}
	}
	return res, nil
}

func parseAssignments(sets []string) ([]assignment, error) {
	res := make([]assignment, 0, len(sets))
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAssignment, s)
		}
		res = append(res, assignment{name: api.Name(name), raw: raw})
	}
	return res, nil
}

func printFailures(w io.Writer, err error) {
	var verr *api.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, f := range verr.Result.Failures() {
		if f.Activity == "" {
			fmt.Fprintf(w, "  missing %s (%s)\n", f.Property, f.Phase)
			continue
		}
		fmt.Fprintf(w, "  missing %s/%s (%s)\n", f.Activity, f.Property,
			f.Phase)
	}
}

func logEvents(batch []flow.Event) error {
	for _, ev := range batch {
		slog.Info("Flow event",
			slog.String("type", string(ev.Type)),
			log.FlowKey(ev.LookupKey),
			log.FlowType(ev.FlowType),
			log.Activity(ev.Activity),
			slog.String("from", string(ev.From)),
			log.State(ev.To))
	}
	return nil
}
