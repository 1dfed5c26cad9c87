// Command schedulectl runs maintenance tasks against the class schedule database.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/internal/repository"
	"github.com/noah-isme/class-schedule-api/internal/service"
	"github.com/noah-isme/class-schedule-api/migrations"
	"github.com/noah-isme/class-schedule-api/pkg/config"
	"github.com/noah-isme/class-schedule-api/pkg/database"
	"github.com/noah-isme/class-schedule-api/pkg/logger"
)

const usage = `usage: schedulectl <command> [flags]

commands:
  migrate <up|down|status|redo|version>  run database migrations
  seed -file configs/seed.yaml            install class types, template, semester and holidays
  materialize -start DATE -end DATE       expand the weekly template into class entries
  hash-passphrase                         print a bcrypt hash for AUTH_PASSPHRASE_HASH
  smoke -base URL [-baseline URL]         probe a running API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "migrate":
		err = runMigrate(args)
	case "seed":
		err = runSeed(ctx, args)
	case "materialize":
		err = runMaterialize(ctx, args)
	case "hash-passphrase":
		err = runHashPassphrase(os.Stdin, os.Stdout)
	case "smoke":
		err = runSmoke(ctx, args, os.Stdout)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("schedulectl: %v", err)
	}
}

type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &env{cfg: cfg, logger: logr, db: db}, nil
}

func (e *env) close() {
	_ = e.db.Close()
	_ = e.logger.Sync()
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	_ = fs.Parse(args)
	command := "up"
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := database.Migrate(e.db, migrations.FS, command, fs.Args()[min(1, fs.NArg()):]...); err != nil {
		return err
	}
	e.logger.Info("migration command finished", zap.String("command", command))
	return nil
}

type services struct {
	classTypes *service.ClassTypeService
	ranges     *service.SemesterRangeService
	schedule   *service.ScheduleService
	holidays   *service.HolidayService
}

func (e *env) services() *services {
	validate := validator.New()
	classTypeRepo := repository.NewClassTypeRepository(e.db)
	rangeRepo := repository.NewSemesterRangeRepository(e.db)

	// The API's statistics cache is not reachable from here; its entries expire on their TTL.
	return &services{
		classTypes: service.NewClassTypeService(classTypeRepo, nil, validate, e.logger),
		ranges:     service.NewSemesterRangeService(rangeRepo, nil, validate, e.logger, e.cfg.Schedule.MaxRangeDays),
		schedule: service.NewScheduleService(repository.NewWeeklyTemplateRepository(e.db), repository.NewClassEntryRepository(e.db),
			classTypeRepo, rangeRepo, nil, nil, validate, e.logger, service.ScheduleConfig{
				Policy:       models.MaterializePolicy(e.cfg.Schedule.MaterializePolicy),
				MaxRangeDays: e.cfg.Schedule.MaxRangeDays,
			}),
		holidays: service.NewHolidayService(repository.NewHolidayRepository(e.db), nil, validate, e.logger),
	}
}

func runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	path := fs.String("file", "configs/seed.yaml", "seed file")
	materialize := fs.Bool("materialize", false, "materialize the seeded semester afterwards")
	_ = fs.Parse(args)

	file, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer file.Close()
	seed, err := service.DecodeSeed(file)
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	svcs := e.services()

	result, err := service.NewSeedService(svcs.classTypes, svcs.ranges, svcs.schedule, svcs.holidays, e.logger).Apply(ctx, seed)
	if err != nil {
		return err
	}
	fmt.Printf("class types: %d created, %d existing\ntemplate slots: %d\nholidays: %d\n",
		result.ClassTypesCreated, result.ClassTypesExisting, result.TemplateSlots, result.Holidays)

	if !*materialize || result.Semester == nil {
		return nil
	}
	return printMaterialize(svcs.schedule.Materialize(ctx, dto.MaterializeRequest{
		StartDate:       seed.Semester.StartDate,
		EndDate:         seed.Semester.EndDate,
		SemesterRangeID: result.Semester.ID,
	}))
}

func runMaterialize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("materialize", flag.ExitOnError)
	start := fs.String("start", "", "first date (YYYY-MM-DD), defaults to the current semester start")
	end := fs.String("end", "", "last date (YYYY-MM-DD), defaults to the current semester end")
	policy := fs.String("policy", "", "preserve-existing or replace-all, defaults to MATERIALIZE_POLICY")
	_ = fs.Parse(args)

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	svcs := e.services()

	req := dto.MaterializeRequest{StartDate: *start, EndDate: *end, Policy: *policy}
	if req.StartDate == "" || req.EndDate == "" {
		current, err := svcs.ranges.Current(ctx)
		if err != nil {
			return fmt.Errorf("no -start/-end given and %w", err)
		}
		req.StartDate = current.StartDate.Format("2006-01-02")
		req.EndDate = current.EndDate.Format("2006-01-02")
		req.SemesterRangeID = current.ID
	}
	return printMaterialize(svcs.schedule.Materialize(ctx, req))
}

func printMaterialize(result *dto.MaterializeResult, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("materialized %s..%s (%s): %d deleted, %d created, %d preserved\n",
		result.StartDate, result.EndDate, result.Policy, result.Deleted, result.Created, result.Preserved)
	return nil
}

func runHashPassphrase(in *os.File, out io.Writer) error {
	passphrase, err := readPassphrase(in, out)
	if err != nil {
		return err
	}
	hash, err := service.HashPassphrase(passphrase)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}

func readPassphrase(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(out, "passphrase: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
