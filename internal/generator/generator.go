// Package generator runs dialog sessions end to end and assembles corpora.
// One session threads System -> SysNLG -> User -> ActionChannel -> UserNLG ->
// WordChannel until the system says goodbye; a corpus shards independent
// sessions across workers with one seeded RNG each.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"simdial/internal/action"
	"simdial/internal/agent"
	"simdial/internal/channel"
	"simdial/internal/complexity"
	"simdial/internal/domain"
	"simdial/internal/nlg"
)

// A session that outlives this many recorded turns is broken, not long.
const maxSessionTurns = 200

// Speaker labels as they appear in the corpus.
const (
	SpeakerSys = "SYS"
	SpeakerUsr = "USR"
)

// Turn is one transcript entry. System turns carry the lexicalized acts and a
// belief snapshot; user turns carry the noisy symbolic acts and the channel
// confidence.
type Turn struct {
	Speaker string
	Utt     string
	Domain  string

	// System side.
	SysActions []action.LexAction
	State      *agent.TurnState

	// User side.
	UsrActions []*action.Action
	Conf       float64
}

// MarshalJSON picks the per-speaker shape of the corpus format.
func (t *Turn) MarshalJSON() ([]byte, error) {
	if t.Speaker == SpeakerSys {
		return json.Marshal(map[string]any{
			"speaker": t.Speaker,
			"utt":     t.Utt,
			"actions": t.SysActions,
			"domain":  t.Domain,
			"state":   t.State,
		})
	}
	return json.Marshal(map[string]any{
		"speaker": t.Speaker,
		"utt":     t.Utt,
		"actions": t.UsrActions,
		"conf":    t.Conf,
		"domain":  t.Domain,
	})
}

// DumpString renders the turn's content for the plain-text format: the
// utterance when present, otherwise the symbolic acts.
func (t *Turn) DumpString() string {
	if t.Utt != "" {
		return t.Utt
	}
	var parts []string
	if t.Speaker == SpeakerSys {
		for _, a := range t.SysActions {
			parts = append(parts, a.DumpString())
		}
	} else {
		for _, a := range t.UsrActions {
			parts = append(parts, a.DumpString())
		}
	}
	return strings.Join(parts, " ")
}

// Dialog is one finished session.
type Dialog []*Turn

// RunSession plays one full dialog. Every stochastic choice draws from rng,
// so the transcript is a pure function of (domain, profile, seed). The reward
// is +1 when the user left with all goals met, -1 otherwise.
func RunSession(d *domain.Domain, profile *complexity.Profile, rng *rand.Rand, logger *zap.Logger) (Dialog, float64, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	usr := agent.NewUser(d, profile, rng, logger)
	sys := agent.NewSystem(d, profile, logger)
	actionCh := channel.NewActionChannel(d, profile, rng)
	wordCh := channel.NewWordChannel(profile, rng)
	sysNLG := nlg.NewSysNLG(d, rng)
	usrNLG := nlg.NewUserNLG(d, rng)

	var dialog Dialog
	var noisyActs []*action.Action
	conf := 1.0

	for {
		if len(dialog) >= maxSessionTurns {
			return nil, 0, fmt.Errorf("session exceeded %d turns in domain %s", maxSessionTurns, d.Name)
		}

		terminal, sysActs, state, err := sys.Step(noisyActs, conf)
		if err != nil {
			return nil, 0, fmt.Errorf("system step: %w", err)
		}
		sysUtt, lexed, err := sysNLG.Generate(sysActs)
		if err != nil {
			return nil, 0, fmt.Errorf("system nlg: %w", err)
		}
		dialog = append(dialog, &Turn{
			Speaker:    SpeakerSys,
			Utt:        sysUtt,
			Domain:     d.Name,
			SysActions: lexed,
			State:      state,
		})
		if terminal {
			break
		}

		_, usrActs, err := usr.Step(sysActs)
		if err != nil {
			return nil, 0, fmt.Errorf("user step: %w", err)
		}
		noisyActs, conf = actionCh.Transmit(usrActs)
		usrUtt, err := usrNLG.Generate(noisyActs)
		if err != nil {
			return nil, 0, fmt.Errorf("user nlg: %w", err)
		}
		usrUtt = wordCh.Transmit(usrUtt)
		dialog = append(dialog, &Turn{
			Speaker:    SpeakerUsr,
			Utt:        usrUtt,
			Domain:     d.Name,
			UsrActions: noisyActs,
			Conf:       conf,
		})
	}
	return dialog, usr.Reward(), nil
}

// Config parameterizes one corpus run.
type Config struct {
	Spec    *domain.Spec
	Profile *complexity.Profile
	Size    int
	Seed    int64
	Workers int
	Logger  *zap.Logger
}

// Corpus is a finished set of dialogs for one (domain, profile) cell.
type Corpus struct {
	Spec    *domain.Spec
	Profile string
	Dialogs []Dialog
	Rewards []float64
}

// Generate builds the domain once, then runs Size sessions. Session i always
// uses seed Seed+1+i, so the corpus is byte-identical across worker counts.
func Generate(ctx context.Context, cfg Config) (*Corpus, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("corpus size must be positive, got %d", cfg.Size)
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, err
	}

	dom, err := domain.New(cfg.Spec, rand.New(rand.NewSource(cfg.Seed)), logger)
	if err != nil {
		return nil, err
	}

	out := &Corpus{
		Spec:    cfg.Spec,
		Profile: cfg.Profile.Name,
		Dialogs: make([]Dialog, cfg.Size),
		Rewards: make([]float64, cfg.Size),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Size; i++ {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rng := rand.New(rand.NewSource(cfg.Seed + 1 + int64(i)))
			dialog, reward, err := RunSession(dom, cfg.Profile, rng, logger)
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			out.Dialogs[i] = dialog
			out.Rewards[i] = reward
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("corpus generated",
		zap.String("domain", cfg.Spec.Name),
		zap.String("profile", cfg.Profile.Name),
		zap.Int("dialogs", cfg.Size))
	return out, nil
}

// Stats summarizes a corpus: turn counts and how often the system reached for
// the knowledge base.
type Stats struct {
	NumDialogs     int
	AvgLen         float64
	MaxLen         int
	QueryTurnRatio float64
	AvgDialogRatio float64
}

// Stats computes summary statistics over the corpus.
func (c *Corpus) Stats() Stats {
	s := Stats{NumDialogs: len(c.Dialogs)}
	if len(c.Dialogs) == 0 {
		return s
	}
	totalTurns, queryTurns := 0, 0
	ratioSum := 0.0
	for _, d := range c.Dialogs {
		if len(d) > s.MaxLen {
			s.MaxLen = len(d)
		}
		local := 0
		for _, t := range d {
			totalTurns++
			for _, a := range t.SysActions {
				if a.Act == action.Query {
					queryTurns++
					local++
					break
				}
			}
		}
		ratioSum += float64(local) / float64(len(d))
	}
	s.AvgLen = float64(totalTurns) / float64(len(c.Dialogs))
	s.QueryTurnRatio = float64(queryTurns) / float64(totalTurns)
	s.AvgDialogRatio = ratioSum / float64(len(c.Dialogs))
	return s
}
