package embedded_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ecofinds/internal/gateway"
	"ecofinds/internal/gateway/embedded"
	"ecofinds/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *embedded.Backend {
	t.Helper()
	b, err := embedded.Open(embedded.Config{
		Driver:    "sqlite",
		DSN:       fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()),
		JWTSecret: "test_jwt_secret",
		TokenTTL:  time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

// signUp creates an identity and a profile and returns a context acting as it.
func signUp(t *testing.T, b *embedded.Backend, email, username string) (context.Context, *gateway.Session) {
	t.Helper()
	s, err := b.SignUp(context.Background(), gateway.Credentials{Email: email, Password: "password123"})
	require.NoError(t, err)
	ctx := gateway.WithAccessToken(context.Background(), s.AccessToken)
	err = b.Insert(ctx, "profiles", []models.Profile{{ID: s.User.ID, Username: username}}, nil)
	require.NoError(t, err)
	return ctx, s
}

func createProduct(t *testing.T, b *embedded.Backend, ctx context.Context, ownerID, title string, price float64) models.Product {
	t.Helper()
	var out []models.Product
	err := b.Insert(ctx, "products", []models.Product{{
		Title: title, Price: price, Category: "Books", UserID: ownerID,
	}}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotEmpty(t, out[0].ID)
	return out[0]
}

func TestAuth_SignUpSignInSignOut(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	s, err := b.SignUp(ctx, gateway.Credentials{
		Email:    " Alice@Example.com ",
		Password: "password123",
		Data:     map[string]any{"username": "alice"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, s.AccessToken)
	assert.Equal(t, "alice@example.com", s.User.Email)
	assert.Equal(t, "alice", s.User.MetadataString("username"))

	_, err = b.SignUp(ctx, gateway.Credentials{Email: "alice@example.com", Password: "password123"})
	assert.Equal(t, gateway.CodeUserExists, gateway.CodeOf(err))

	_, err = b.SignIn(ctx, "alice@example.com", "wrongpassword")
	assert.Equal(t, gateway.CodeInvalidCredentials, gateway.CodeOf(err))
	_, err = b.SignIn(ctx, "nobody@example.com", "password123")
	assert.Equal(t, gateway.CodeInvalidCredentials, gateway.CodeOf(err))

	signedIn, err := b.SignIn(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)

	user, err := b.GetUser(ctx, signedIn.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, user.ID)

	require.NoError(t, b.SignOut(ctx, signedIn.AccessToken))
	_, err = b.GetUser(ctx, signedIn.AccessToken)
	assert.Equal(t, gateway.CodeBadJWT, gateway.CodeOf(err))

	// The sign-up token was not revoked.
	_, err = b.GetUser(ctx, s.AccessToken)
	assert.NoError(t, err)
}

func TestAuth_RejectsShortPasswordAndForgedToken(t *testing.T) {
	b := newBackend(t)
	_, err := b.SignUp(context.Background(), gateway.Credentials{Email: "a@example.com", Password: "123"})
	assert.Equal(t, gateway.CodeInvalidRequest, gateway.CodeOf(err))

	_, err = b.GetUser(context.Background(), "not.a.token")
	assert.Equal(t, gateway.CodeBadJWT, gateway.CodeOf(err))
}

func TestSignUp_DoesNotCreateProfile(t *testing.T) {
	b := newBackend(t)
	s, err := b.SignUp(context.Background(), gateway.Credentials{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	var p models.Profile
	err = b.Select(context.Background(), gateway.From("profiles").Eq("id", s.User.ID).Single(), &p)
	assert.True(t, gateway.IsNotFound(err))
}

func TestTables_ProductEmbedsOwnerProfile(t *testing.T) {
	b := newBackend(t)
	ctx, s := signUp(t, b, "seller@example.com", "seller")
	created := createProduct(t, b, ctx, s.User.ID, "Old lamp", 12.5)

	var got models.Product
	q := gateway.From("products").Embed("profiles", "username").Eq("id", created.ID).Single()
	require.NoError(t, b.Select(context.Background(), q, &got))
	assert.Equal(t, "Old lamp", got.Title)
	assert.Equal(t, "seller", got.SellerName())

	err := b.Select(context.Background(), gateway.From("products").Eq("id", "missing").Single(), &got)
	assert.True(t, gateway.IsNotFound(err))
}

func TestTables_SingleRejectsSeveralMatches(t *testing.T) {
	b := newBackend(t)
	ctx, s := signUp(t, b, "seller@example.com", "seller")
	createProduct(t, b, ctx, s.User.ID, "Old lamp", 12.5)
	createProduct(t, b, ctx, s.User.ID, "Old chair", 20)

	var got models.Product
	err := b.Select(context.Background(), gateway.From("products").Eq("user_id", s.User.ID).Single(), &got)
	require.Error(t, err)
	assert.True(t, gateway.IsNotFound(err))
	assert.Contains(t, err.Error(), "multiple (or no) rows")
	assert.Empty(t, got.ID)

	err = b.Select(context.Background(), gateway.From("products").Eq("title", "Old chair").Single(), &got)
	require.NoError(t, err)
	assert.Equal(t, "Old chair", got.Title)
}

func TestTables_SearchOrderAndLimit(t *testing.T) {
	b := newBackend(t)
	ctx, s := signUp(t, b, "seller@example.com", "seller")
	for i, title := range []string{"Red Bicycle", "Blue bicycle", "Garden chair"} {
		var out []models.Product
		err := b.Insert(ctx, "products", []models.Product{{
			Title: title, Price: 10, Category: "Sports", UserID: s.User.ID,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}}, &out)
		require.NoError(t, err)
	}

	var found []models.Product
	q := gateway.From("products").ILike("title", "%BICYCLE%").Order("created_at", false)
	require.NoError(t, b.Select(context.Background(), q, &found))
	require.Len(t, found, 2)
	assert.Equal(t, "Blue bicycle", found[0].Title)

	var recent []models.Product
	require.NoError(t, b.Select(context.Background(), gateway.From("products").Order("created_at", false).Limit(1), &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, "Garden chair", recent[0].Title)
}

func TestTables_InsertPolicies(t *testing.T) {
	b := newBackend(t)
	ctx, s := signUp(t, b, "seller@example.com", "seller")

	anon := context.Background()
	err := b.Insert(anon, "products", []models.Product{{Title: "x", Category: "Other", UserID: s.User.ID}}, nil)
	assert.True(t, gateway.IsPermissionDenied(err))

	err = b.Insert(ctx, "products", []models.Product{{Title: "x", Category: "Other", UserID: "someone-else"}}, nil)
	assert.True(t, gateway.IsPermissionDenied(err))

	err = b.Insert(ctx, "profiles", []models.Profile{{ID: "someone-else", Username: "mallory"}}, nil)
	assert.True(t, gateway.IsPermissionDenied(err))

	err = b.Insert(ctx, "nope", []models.Product{}, nil)
	assert.Error(t, err)
}

func TestTables_NonOwnerCannotDeleteOrUpdate(t *testing.T) {
	b := newBackend(t)
	ownerCtx, owner := signUp(t, b, "owner@example.com", "owner")
	otherCtx, _ := signUp(t, b, "other@example.com", "other")
	p := createProduct(t, b, ownerCtx, owner.User.ID, "Vintage radio", 40)

	require.NoError(t, b.Delete(otherCtx, "products", gateway.Eq("id", p.ID)))
	require.NoError(t, b.Update(otherCtx, "products", map[string]any{"title": "Stolen"}, gateway.Eq("id", p.ID)))

	var got models.Product
	require.NoError(t, b.Select(context.Background(), gateway.From("products").Eq("id", p.ID).Single(), &got))
	assert.Equal(t, "Vintage radio", got.Title)

	err := b.Delete(context.Background(), "products", gateway.Eq("id", p.ID))
	assert.True(t, gateway.IsPermissionDenied(err))

	err = b.Update(ownerCtx, "products", map[string]any{"user_id": "someone-else"}, gateway.Eq("id", p.ID))
	assert.True(t, gateway.IsPermissionDenied(err))

	require.NoError(t, b.Update(ownerCtx, "products", map[string]any{"title": "Radio", "price": 35.0}, gateway.Eq("id", p.ID)))
	require.NoError(t, b.Select(context.Background(), gateway.From("products").Eq("id", p.ID).Single(), &got))
	assert.Equal(t, "Radio", got.Title)
	assert.Equal(t, 35.0, got.Price)

	require.NoError(t, b.Delete(ownerCtx, "products", gateway.Eq("id", p.ID)))
	err = b.Select(context.Background(), gateway.From("products").Eq("id", p.ID).Single(), &got)
	assert.True(t, gateway.IsNotFound(err))
}

func TestTables_CartUniqueAndPrivate(t *testing.T) {
	b := newBackend(t)
	sellerCtx, seller := signUp(t, b, "seller@example.com", "seller")
	buyerCtx, buyer := signUp(t, b, "buyer@example.com", "buyer")
	p := createProduct(t, b, sellerCtx, seller.User.ID, "Desk", 19.75)

	entry := []models.CartEntry{{UserID: buyer.User.ID, ProductID: p.ID}}
	require.NoError(t, b.Insert(buyerCtx, "cart", entry, nil))

	err := b.Insert(buyerCtx, "cart", entry, nil)
	assert.True(t, gateway.IsUniqueViolation(err), "got %v", err)

	var cart []models.CartEntry
	q := gateway.From("cart").
		Embed("products", "*", gateway.Embed{Table: "profiles", Columns: "username"}).
		Eq("user_id", buyer.User.ID).
		Order("created_at", false)
	require.NoError(t, b.Select(buyerCtx, q, &cart))
	require.Len(t, cart, 1)
	require.NotNil(t, cart[0].Product)
	assert.Equal(t, "Desk", cart[0].Product.Title)
	assert.Equal(t, "seller", cart[0].Product.SellerName())

	// Another user's cart reads come back empty.
	var others []models.CartEntry
	require.NoError(t, b.Select(sellerCtx, gateway.From("cart").Eq("user_id", buyer.User.ID), &others))
	assert.Empty(t, others)

	require.NoError(t, b.Delete(buyerCtx, "cart", gateway.Eq("id", cart[0].ID)))
	require.NoError(t, b.Select(buyerCtx, q, &cart))
	assert.Empty(t, cart)
}

func TestTables_UnknownEmbed(t *testing.T) {
	b := newBackend(t)
	var out []models.Product
	err := b.Select(context.Background(), gateway.From("products").Embed("cart", "*"), &out)
	assert.Error(t, err)
}
