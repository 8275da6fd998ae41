package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pcameron/labelagent/pkg/api"
	"github.com/pcameron/labelagent/pkg/auth"
	"github.com/pcameron/labelagent/pkg/cache"
	"github.com/pcameron/labelagent/pkg/claim"
	"github.com/pcameron/labelagent/pkg/clock"
	"github.com/pcameron/labelagent/pkg/config"
	"github.com/pcameron/labelagent/pkg/game"
	"github.com/pcameron/labelagent/pkg/notify"
	"github.com/pcameron/labelagent/pkg/taskstate"
)

// refreshInterval re-fetches the task list in watch mode so external changes
// and the server-time offset stay current.
const refreshInterval = 30 * time.Second

func main() {
	// 1. Parse Flags
	doSignup := flag.Bool("signup", false, "Create an account with -email and -password")
	doLogin := flag.Bool("login", false, "Sign in with -email and -password")
	doGoogle := flag.Bool("auth", false, "Sign in with Google in the browser")
	doSignout := flag.Bool("signout", false, "Sign out and forget the stored session")
	email := flag.String("email", "", "Email address for -signup/-login")
	password := flag.String("password", "", "Password for -signup/-login")
	setLabel := flag.String("set-label", "", "Set the default label id")
	labelFlag := flag.String("label", "", "Label id to operate on (overrides config)")
	doList := flag.Bool("list", false, "List the label's tasks with progress and countdowns")
	doWatch := flag.Bool("watch", false, "Watch the label and claim finished tasks automatically")
	createType := flag.String("create", "", "Create a task of the given type (e.g. Scouting)")
	predictType := flag.String("predict", "", "Predict the cost of a task of the given type")
	workerID := flag.String("worker", "", "Worker id for -create/-predict")
	budget := flag.Int64("budget", 0, "Budget for -create/-predict")
	artistID := flag.String("artist", "", "Artist id for -create/-predict")
	releaseID := flag.String("release", "", "Release id for -create/-predict")
	beatIDs := flag.String("beats", "", "Comma-separated beat ids for -create/-predict")
	flag.Parse()

	// 2. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// 3. Handle Set Label
	if *setLabel != "" {
		cfg.Label = *setLabel
		if err := config.Save(cfg); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Default label set to: %s\n", *setLabel)
		return
	}

	ctx := context.Background()

	configDir, err := config.Dir()
	if err != nil {
		log.Fatalf("could not find path to configuration directory: %v", err)
	}

	// 4. Identity Provider Session
	authMgr, err := auth.NewManager(ctx, configDir, cfg.APIKey)
	if err != nil {
		log.Fatalf("Error creating auth manager: %v", err)
	}

	if *doSignout {
		if err := authMgr.SignOut(); err != nil {
			log.Fatalf("Sign-out failed: %v", err)
		}
		fmt.Println("Signed out.")
		return
	}

	// 5. Backend Client
	var opts []api.Option
	if cfg.AttachBearer == config.BearerAlways {
		opts = append(opts, api.WithTokenSource(authMgr.IDToken))
	}
	opts = append(opts, api.WithClaimTimeout(cfg.ClaimTimeout))
	client := api.New(cfg.APIBaseURL, opts...)

	// 6. Handle Sign-in Flows
	if *doSignup || *doLogin || *doGoogle {
		var user *auth.User
		switch {
		case *doGoogle:
			user, err = authMgr.SignInWithGoogle(ctx)
		case *doSignup:
			user, err = authMgr.SignUp(ctx, *email, *password)
		default:
			user, err = authMgr.SignIn(ctx, *email, *password)
		}
		if err != nil {
			log.Fatalf("Authentication failed: %s", auth.UserMessage(err))
		}

		player, err := client.EnsurePlayer(ctx, user.UID, usernameFor(user))
		if err != nil {
			log.Fatalf("Signed in, but could not load player record: %s", api.UserMessage(err))
		}
		fmt.Printf("Signed in as %s (player %s)\n", user.Email, player.ID)
		if player.LabelID != "" && cfg.Label == "" {
			cfg.Label = player.LabelID
			if err := config.Save(cfg); err != nil {
				log.Printf("Warning: could not save default label: %v", err)
			}
		}
		return
	}

	// 7. Determine Label (Priority: Flag > Config)
	labelID := cfg.Label
	if *labelFlag != "" {
		labelID = *labelFlag
	}
	if labelID == "" {
		log.Fatal("No label selected. Use -label or -set-label.")
	}

	// 8. One-shot Commands
	if *predictType != "" {
		req := createRequest(labelID, *workerID, *budget, *artistID, *releaseID, *beatIDs)
		prediction, err := client.PredictCost(ctx, game.TaskType(*predictType), req)
		if err != nil {
			log.Fatalf("Cost prediction failed: %s", api.UserMessage(err))
		}
		fmt.Printf("Budget: %d  Duration: %s  Stamina: %d\n",
			prediction.BudgetRequired,
			taskstate.FormatCountdown(time.Duration(prediction.Duration)*time.Millisecond),
			prediction.StaminaCost)
		return
	}

	if *createType != "" {
		req := createRequest(labelID, *workerID, *budget, *artistID, *releaseID, *beatIDs)
		task, err := client.CreateTask(ctx, game.TaskType(*createType), req)
		if err != nil {
			log.Fatalf("Task creation failed: %s", api.UserMessage(err))
		}
		fmt.Printf("Created %s task %s, finishes in %s\n",
			task.Type, task.ID,
			taskstate.FormatCountdown(time.Until(task.EndTime.Time)))
		return
	}

	if *doList {
		listTasks(ctx, client, labelID)
		return
	}

	if *doWatch {
		watch(ctx, client, configDir, labelID, cfg.PollInterval)
		return
	}

	flag.Usage()
}

// listTasks prints each task with its derived progress and countdown.
func listTasks(ctx context.Context, client *api.Client, labelID string) {
	tasks, serverTime, err := client.ListTasks(ctx, labelID)
	if err != nil {
		log.Fatalf("Error fetching tasks: %s", api.UserMessage(err))
	}

	offset := &clock.Offset{}
	offset.Observe(serverTime, time.Now())
	now := offset.Adjusted(time.Now())

	for _, state := range taskstate.DeriveAll(tasks, now) {
		fmt.Printf("%-20s %-12s %5.1f%%  %s\n",
			state.Task.Name, state.Status, state.Progress, state.Countdown)
	}
}

// watch runs the clock and the auto-claim service until interrupted.
func watch(ctx context.Context, client *api.Client, configDir, labelID string, pollInterval time.Duration) {
	offset := &clock.Offset{}
	tick := clock.New(pollInterval)

	tasks := cache.NewTaskCache(func(ctx context.Context, labelID string) ([]game.TimedTask, error) {
		list, serverTime, err := client.ListTasks(ctx, labelID)
		if err != nil {
			return nil, err
		}
		offset.Observe(serverTime, time.Now())
		return list, nil
	})

	artists, err := cache.NewArtistCache(configDir)
	if err != nil {
		log.Fatalf("Error loading artist cache: %v", err)
	}

	center := notify.NewCenter()
	center.Subscribe(func(n notify.Notification) {
		log.Printf("[%s] %s", n.Level, n.Message)
	})

	svc := claim.NewService(claim.Deps{
		Backend:         client,
		Tasks:           tasks,
		Contracts:       cache.NewListCache(client.Contracts),
		ContractRecords: cache.NewRecordCache(client.Contract),
		Beats:           cache.NewListCache(client.Beats),
		Releases:        cache.NewListCache(client.Releases),
		Labels:          cache.NewRecordCache(client.GetLabel),
		Artists:         artists,
		Notify:          center,
		Clock:           tick,
		Offset:          offset,
	})

	if _, err := tasks.Tasks(ctx, labelID); err != nil {
		log.Fatalf("Error fetching tasks: %s", api.UserMessage(err))
	}

	tick.Start()
	svc.Start(labelID)
	log.Printf("Watching label %s", labelID)

	// Keep the task list and server offset fresh; claims mark the cache stale
	// and this loop performs the refetch.
	refreshStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		lastFull := time.Now()
		for {
			select {
			case <-refreshStop:
				return
			case <-ticker.C:
				if time.Since(lastFull) >= refreshInterval {
					tasks.Invalidate(labelID)
					lastFull = time.Now()
				}
				if _, err := tasks.Tasks(ctx, labelID); err != nil {
					log.Printf("task refresh failed: %v", err)
				}
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	close(refreshStop)
	svc.Stop()
	tick.Stop()
	if err := artists.Save(); err != nil {
		log.Printf("Warning: failed to save artist cache: %v", err)
	}
}

func createRequest(labelID, workerID string, budget int64, artistID, releaseID, beats string) api.CreateTaskRequest {
	req := api.CreateTaskRequest{
		LabelID:   labelID,
		WorkerID:  workerID,
		Budget:    budget,
		ArtistID:  artistID,
		ReleaseID: releaseID,
	}
	if beats != "" {
		req.BeatIDs = strings.Split(beats, ",")
	}
	return req
}

func usernameFor(user *auth.User) string {
	if i := strings.IndexByte(user.Email, '@'); i > 0 {
		return user.Email[:i]
	}
	return user.UID
}
