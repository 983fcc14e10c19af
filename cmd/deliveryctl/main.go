package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"delivery-service/internal/config"
	"delivery-service/internal/domain"
	"delivery-service/internal/events"
	mmysql "delivery-service/internal/infra/mysql"
	"delivery-service/internal/infra/rabbitmq"
	"delivery-service/internal/logger"
	"delivery-service/internal/repository"
	mysqlrepo "delivery-service/internal/repository/mysql"
	"delivery-service/internal/services"

	"github.com/olekukonko/tablewriter"
	"gorm.io/gorm"
)

const usage = `usage: deliveryctl <command> [flags]

commands:
  sweep      run a periodic job once (-job stale_orders|delivery_reminders)
  attention  list orders that need attention (-age 1h)
  stats      print the dashboard (-limit 5)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	lg := logger.New(logger.Config{Level: cfg.LogLevel, Format: "text", Output: os.Stderr, Component: "deliveryctl"})

	gdb, err := mmysql.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect to MySQL: %v", err)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "sweep":
		err = runSweep(ctx, cfg, gdb, lg, args)
	case "attention":
		err = runAttention(ctx, gdb, lg, args)
	case "stats":
		err = runStats(ctx, gdb, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func orderService(gdb *gorm.DB, disp *events.Dispatcher, lg *logger.Logger) *services.OrderService {
	return services.NewOrderService(
		mysqlrepo.NewOrderRepository(gdb, lg),
		mysqlrepo.NewMenuRepository(gdb),
		mysqlrepo.NewRestaurantRepository(gdb),
		disp, lg,
	)
}

func runSweep(ctx context.Context, cfg *config.Config, gdb *gorm.DB, lg *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	job := fs.String("job", services.SweepStaleOrders, "job to run: stale_orders or delivery_reminders")
	threshold := fs.Duration("threshold", cfg.StaleOrderThreshold, "age after which open orders are cancelled")
	_ = fs.Parse(args)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.EventExchange)
	if err != nil {
		return fmt.Errorf("failed to init publisher: %w", err)
	}
	defer publisher.Close()
	disp := events.NewDispatcher(publisher, lg)
	defer disp.Wait()

	sweeps := services.NewSweepService(orderService(gdb, disp, lg), mysqlrepo.NewDeliveryRepository(gdb), disp, services.SweepConfig{
		StaleThreshold: *threshold,
		ReminderLead:   cfg.ReminderLead,
		ReminderWindow: cfg.ReminderWindow,
	}, lg)

	var n int
	switch *job {
	case services.SweepStaleOrders:
		n, err = sweeps.SweepStaleOrders(ctx)
	case services.SweepReminders:
		n, err = sweeps.SendDeliveryReminders(ctx)
	default:
		return fmt.Errorf("unknown job %q", *job)
	}
	if err != nil {
		return err
	}
	log.Printf("%s: %d affected", *job, n)
	return nil
}

func runAttention(ctx context.Context, gdb *gorm.DB, lg *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("attention", flag.ExitOnError)
	age := fs.Duration("age", time.Hour, "open orders older than this are listed")
	_ = fs.Parse(args)

	orders, err := orderService(gdb, events.NewDispatcher(nil, lg), lg).AttentionOrders(ctx, *age)
	if err != nil {
		return err
	}
	return printOrders(orders)
}

func runStats(ctx context.Context, gdb *gorm.DB, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	limit := fs.Int("limit", 5, "rows per ranking")
	_ = fs.Parse(args)

	stats, err := services.NewStatsService(mysqlrepo.NewStatsRepository(gdb)).Dashboard(ctx, *limit)
	if err != nil {
		return err
	}
	fmt.Printf("restaurants=%d dishes=%d orders=%d\n\n", stats.Restaurants, stats.Dishes, stats.Orders)
	if err := printRestaurants(stats.TopRestaurants); err != nil {
		return err
	}
	fmt.Println()
	if err := printDishes(stats.PopularDishes); err != nil {
		return err
	}
	fmt.Println()
	return printOrders(stats.CurrentOrders)
}

func printRestaurants(rows []repository.RestaurantRank) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Restaurant", "Orders", "Menu items")
	for _, r := range rows {
		if err := table.Append(fmtID(r.ID), r.Name, strconv.FormatInt(r.OrdersCount, 10), strconv.FormatInt(r.MenuItemsCount, 10)); err != nil {
			return err
		}
	}
	return table.Render()
}

func printDishes(rows []repository.DishRank) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Dish", "Price", "Orders")
	for _, d := range rows {
		if err := table.Append(fmtID(d.ID), d.Name, d.Price.StringFixed(2), strconv.FormatInt(d.OrdersCount, 10)); err != nil {
			return err
		}
	}
	return table.Render()
}

func printOrders(orders []domain.Order) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "User", "Restaurant", "Status", "Total", "Created")
	for _, o := range orders {
		err := table.Append(
			fmtID(o.ID),
			fmtID(o.UserID),
			fmtID(o.RestaurantID),
			string(o.Status),
			o.TotalPrice.StringFixed(2),
			o.CreatedAt.Format(time.DateTime),
		)
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func fmtID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
