package inventoryservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/inventory-service/domain"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// reserveScript decrements every key only if all of them hold at least the
// requested quantity. KEYS are stock counters, ARGV the matching quantities.
var reserveScript = redis.NewScript(`
for i, key in ipairs(KEYS) do
  local current = tonumber(redis.call('GET', key))
  if current == nil or current < tonumber(ARGV[i]) then
    return 0
  end
end
for i, key in ipairs(KEYS) do
  redis.call('DECRBY', key, ARGV[i])
end
return 1
`)

// ErrCorruptStock means a stock counter holds something other than an integer.
var ErrCorruptStock = errors.New("inventory: corrupt stock value")

// RedisStore keeps one integer counter per SKU.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ coordinator.Inventory = (*RedisStore)(nil)

// NewRedisStore uses keys of the form "<prefix>:stock:<sku>".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Key(sku string) string {
	return fmt.Sprintf("%s:stock:%s", s.prefix, sku)
}

func (s *RedisStore) keysAndArgs(items []domain.StockItem) ([]string, []any) {
	keys := make([]string, len(items))
	args := make([]any, len(items))
	for i, item := range items {
		keys[i] = s.Key(item.SKU)
		args[i] = item.Quantity
	}
	return keys, args
}

func (s *RedisStore) IsAvailable(ctx context.Context, lines []pricing.ItemLine) (bool, error) {
	items := domain.StockItemsFromLines(lines)
	if len(items) == 0 {
		return true, nil
	}
	keys, _ := s.keysAndArgs(items)

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("redis inventory: mget: %w", err)
	}
	for i, v := range values {
		if v == nil {
			return false, nil
		}
		str, ok := v.(string)
		if !ok {
			return false, fmt.Errorf("redis inventory: %s holds %T: %w", keys[i], v, ErrCorruptStock)
		}
		current, err := strconv.Atoi(str)
		if err != nil {
			return false, fmt.Errorf("redis inventory: %s holds %q: %w: %w", keys[i], str, ErrCorruptStock, err)
		}
		if current < items[i].Quantity {
			return false, nil
		}
	}
	return true, nil
}

func (s *RedisStore) Reserve(ctx context.Context, lines []pricing.ItemLine) error {
	items := domain.StockItemsFromLines(lines)
	if len(items) == 0 {
		return nil
	}
	keys, args := s.keysAndArgs(items)

	reserved, err := reserveScript.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("redis inventory: reserve: %w", err)
	}
	if reserved != 1 {
		return fmt.Errorf("reserve for checkout %s: %w", coordinator.CheckoutIDFromContext(ctx), ErrInsufficientStock)
	}
	return nil
}

// Seed sets the stock counters, overwriting existing values.
func (s *RedisStore) Seed(ctx context.Context, stock map[string]int) error {
	if len(stock) == 0 {
		return nil
	}
	pairs := make([]any, 0, 2*len(stock))
	for sku, qty := range stock {
		pairs = append(pairs, s.Key(sku), qty)
	}
	if err := s.client.MSet(ctx, pairs...).Err(); err != nil {
		return fmt.Errorf("redis inventory: seed: %w", err)
	}
	return nil
}

// IsConnectionError reports whether err means the store could not be
// reached or answered too late. Business answers and corrupt counters are
// not connection errors.
func IsConnectionError(err error) bool {
	if err == nil || errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrCorruptStock) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded)
}
