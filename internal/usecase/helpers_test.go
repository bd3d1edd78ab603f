package usecase

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"fulfillment/internal/domain/model"
	"fulfillment/internal/infra/token"
	repo "fulfillment/internal/repository"
	"fulfillment/internal/validator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testThreshold int64 = 6

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

type fixture struct {
	store  *memStore
	clock  *testClock
	tokens *token.Issuer
	hasher *BcryptPasswordHasher

	guard    *Guard
	auth     *AuthUsecase
	cart     *CartUsecase
	orders   *OrderUsecase
	roles    *RoleUsecase
	admin    *AdminUserUsecase
	products *ProductUsecase
	audit    *AuditUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	clock := &testClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	tokens, err := token.NewIssuer("test-secret", 7*24*time.Hour, clock.Now)
	require.NoError(t, err)
	hasher := NewBcryptPasswordHasher(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	direct := store.repos()

	f := &fixture{
		store:    store,
		clock:    clock,
		tokens:   tokens,
		hasher:   hasher,
		guard:    NewGuard(tokens, direct.Users(), direct.Roles()),
		auth:     NewAuthUsecase(store, direct.Users(), direct.Roles(), validator.NewAuthValidator(), hasher, tokens, clock),
		cart:     NewCartUsecase(store, testThreshold),
		orders:   NewOrderUsecase(store, testThreshold, logger),
		roles:    NewRoleUsecase(store),
		admin:    NewAdminUserUsecase(store),
		products: NewProductUsecase(direct.Products(), testThreshold),
		audit:    NewAuditUsecase(direct.AuditLogs()),
	}

	f.tx(t, func(r repo.TxRepos) error {
		for _, name := range model.AllRoleNames() {
			if _, err := r.Roles().Ensure(context.Background(), name, string(name)); err != nil {
				return err
			}
		}
		return nil
	})
	return f
}

func (f *fixture) tx(t *testing.T, fn func(r repo.TxRepos) error) {
	t.Helper()
	require.NoError(t, f.store.WithinTx(context.Background(), fn))
}

// ロール付きのユーザーを直接作る。rolesが空なら付与なし
func (f *fixture) user(t *testing.T, username string, roles ...model.RoleName) model.User {
	t.Helper()
	ctx := context.Background()

	hashed, err := f.hasher.Hash("password123")
	require.NoError(t, err)

	u := model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashed,
		IsActive:     true,
	}
	f.tx(t, func(r repo.TxRepos) error {
		if err := r.Users().Create(ctx, &u); err != nil {
			return err
		}
		for _, name := range roles {
			role, err := r.Roles().FindByName(ctx, name)
			if err != nil {
				return err
			}
			if err := r.Roles().Grant(ctx, u.ID, role.ID); err != nil {
				return err
			}
		}
		return nil
	})
	return u
}

func (f *fixture) product(t *testing.T, name string, price string, stock int64) model.Product {
	t.Helper()

	p := model.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	f.store.putProduct(&p)
	return p
}

// 商品を書き換える
func (f *fixture) editProduct(t *testing.T, productID int64, edit func(p *model.Product)) {
	t.Helper()
	p, ok := f.store.current().products[productID]
	require.True(t, ok, "product %d not found", productID)
	edit(&p)
	f.store.putProduct(&p)
}

func (f *fixture) setPrice(t *testing.T, productID int64, price string) {
	t.Helper()
	f.editProduct(t, productID, func(p *model.Product) {
		p.Price = decimal.RequireFromString(price)
	})
}

func (f *fixture) addToCart(t *testing.T, user model.User, productID int64, qty int64) {
	t.Helper()
	_, err := f.cart.Add(context.Background(), user.ID, AddCartInput{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func (f *fixture) stock(productID int64) int64 {
	return f.store.current().products[productID].StockQuantity
}

func (f *fixture) order(orderID int64) model.Order {
	return f.store.current().orders[orderID]
}

func (f *fixture) cartCount(userID int64) int {
	n := 0
	for _, it := range f.store.current().cart {
		if it.UserID == userID {
			n++
		}
	}
	return n
}

// チェックアウト済みの注文を1つ作る
func (f *fixture) placeOrder(t *testing.T, user model.User, lines map[int64]int64) OrderOutput {
	t.Helper()
	for productID, qty := range lines {
		f.addToCart(t, user, productID, qty)
	}
	out, err := f.orders.Checkout(context.Background(), user, CheckoutInput{ShippingAddress: "1-2-3 Tokyo"})
	require.NoError(t, err)
	return out
}

// エラーの種類とコードを確認する
func requireKind(t *testing.T, err error, kind ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok, "expected *usecase.Error, got %T: %v", err, err)
	require.Equal(t, kind, e.Kind, e.Message)
	if code != "" {
		require.Equal(t, code, e.Code, e.Message)
	}
}


func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
