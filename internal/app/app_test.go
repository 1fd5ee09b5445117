package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmconnect/pkg/auth"
	"farmconnect/pkg/domain"
	"farmconnect/pkg/store"
)

func newAuthApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	data := store.NewMemoryStore()
	a := newTestApp(t, data, newFakeObjectStore())
	return a, data
}

func TestSignUpLoginLogout(t *testing.T) {
	a, _ := newAuthApp(t)

	user, token, err := a.SignUp("Grace@Example.com", "Str0ng!Passw0rd", "Grace")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Fatalf("email should be normalized, got %q", user.Email)
	}
	if user.Provider != domain.ProviderPassword {
		t.Fatalf("provider = %q", user.Provider)
	}

	got, ok := a.UserFromToken(token)
	if !ok || got.ID != user.ID {
		t.Fatalf("token should resolve to the new user")
	}

	if _, _, err := a.Login("grace@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v, want ErrInvalidCredentials", err)
	}
	_, loginToken, err := a.Login("grace@example.com", "Str0ng!Passw0rd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := a.Logout(loginToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := a.UserFromToken(loginToken); ok {
		t.Fatal("logged-out token should not resolve")
	}
}

func TestSignUpRejectsDuplicateAndWeakPassword(t *testing.T) {
	a, _ := newAuthApp(t)

	if _, _, err := a.SignUp("grace@example.com", "short", ""); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("weak password: %v, want ErrWeakPassword", err)
	}
	if _, _, err := a.SignUp("grace@example.com", "Str0ng!Passw0rd", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, _, err := a.SignUp("grace@example.com", "Str0ng!Passw0rd", ""); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("duplicate: %v, want ErrEmailAlreadyExists", err)
	}
}

func TestLoginWithProviderUpsertsByEmail(t *testing.T) {
	a, data := newAuthApp(t)

	user, _, err := a.LoginWithProvider(domain.ProviderGoogle, "pat@example.com", "Pat")
	if err != nil {
		t.Fatalf("first provider login: %v", err)
	}
	if user.Provider != domain.ProviderGoogle || user.PasswordHash != "" {
		t.Fatalf("provider account malformed: %+v", user)
	}
	if _, found, _ := data.GetProfile(user.ID); !found {
		t.Fatal("provider signup should create a default profile")
	}

	again, _, err := a.LoginWithProvider(domain.ProviderGoogle, "pat@example.com", "Pat")
	if err != nil {
		t.Fatalf("second provider login: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("repeat login should reuse the account: %s != %s", again.ID, user.ID)
	}

	if _, _, err := a.LoginWithProvider("twitter", "pat@example.com", "Pat"); err == nil {
		t.Fatal("unknown provider should be rejected")
	}
	// Password login is not available for provider accounts.
	if _, _, err := a.Login("pat@example.com", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("password login on provider account: %v, want ErrInvalidCredentials", err)
	}
}

func TestUpdateProfileIndependentSections(t *testing.T) {
	a, _ := newAuthApp(t)
	user, _, err := a.SignUp("farmer@example.com", "Str0ng!Passw0rd", "Farmer")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	isFarmer := true
	p, err := a.UpdateProfile(user, ProfileUpdate{IsFarmer: &isFarmer})
	if err != nil || !p.IsFarmer {
		t.Fatalf("role update: %+v, %v", p, err)
	}

	lat, lon := -36.85, 174.76
	p, err = a.UpdateProfile(user, ProfileUpdate{FarmLatitude: &lat, FarmLongitude: &lon})
	if err != nil {
		t.Fatalf("location update: %v", err)
	}
	if !p.IsFarmer || !p.HasFarmLocation() {
		t.Fatalf("location update must not clobber role: %+v", p)
	}

	contact := "021 555 0101"
	p, err = a.UpdateProfile(user, ProfileUpdate{PreferredContact: &contact})
	if err != nil || p.PreferredContact != contact {
		t.Fatalf("contact update: %+v, %v", p, err)
	}
	if *p.FarmLatitude != lat {
		t.Fatalf("contact update must not clobber location: %+v", p)
	}
}

func TestUpdateProfileValidatesCoordinates(t *testing.T) {
	a, _ := newAuthApp(t)
	user, _, err := a.SignUp("farmer@example.com", "Str0ng!Passw0rd", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	lat := 91.0
	lon := 10.0
	var vErr *ValidationError
	if _, err := a.UpdateProfile(user, ProfileUpdate{FarmLatitude: &lat, FarmLongitude: &lon}); !errors.As(err, &vErr) {
		t.Fatalf("out-of-range latitude: %v, want ValidationError", err)
	}
	if _, err := a.UpdateProfile(user, ProfileUpdate{FarmLatitude: &lon}); !errors.As(err, &vErr) {
		t.Fatalf("latitude without longitude: %v, want ValidationError", err)
	}
}

func TestGetFarmMapDegradesWithoutKey(t *testing.T) {
	data := store.NewMemoryStore()
	a := newTestApp(t, data, newFakeObjectStore())
	user, _, err := a.SignUp("farmer@example.com", "Str0ng!Passw0rd", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := a.GetFarmMap(user); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no location: %v, want ErrNotFound", err)
	}

	lat, lon := 40.0, -88.0
	if _, err := a.UpdateProfile(user, ProfileUpdate{FarmLatitude: &lat, FarmLongitude: &lon}); err != nil {
		t.Fatalf("set location: %v", err)
	}
	fm, err := a.GetFarmMap(user)
	if err != nil {
		t.Fatalf("farm map: %v", err)
	}
	if fm.Latitude != lat || fm.Longitude != lon {
		t.Fatalf("coordinates = %v,%v", fm.Latitude, fm.Longitude)
	}
	if fm.MapURL != "" {
		t.Fatalf("no maps key configured, url should be empty: %q", fm.MapURL)
	}
}

func TestListProduceAttachesSellerContacts(t *testing.T) {
	data := store.NewMemoryStore()
	a := newTestApp(t, data, newFakeObjectStore())
	farmer := seedFarmer(t, data, "farmer-1")
	contact := "ph 555-0101"
	if _, err := a.UpdateProfile(farmer, ProfileUpdate{PreferredContact: &contact}); err != nil {
		t.Fatalf("set contact: %v", err)
	}
	if _, err := a.CreateProduceListing(context.Background(), farmer, produceInput(), imageUpload("img")); err != nil {
		t.Fatalf("create: %v", err)
	}

	listings, err := a.ListProduce(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 1 || listings[0].SellerContact != contact {
		t.Fatalf("seller contact not attached: %+v", listings)
	}
}

func TestListProduceToleratesContactFailures(t *testing.T) {
	data := store.NewMemoryStore()
	a := newTestApp(t, data, newFakeObjectStore())
	farmer := seedFarmer(t, data, "farmer-1")
	if _, err := a.CreateProduceListing(context.Background(), farmer, produceInput(), imageUpload("img")); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Swap in a directory whose lookups always fail.
	a.contacts = NewContactDirectory(brokenProfileStore{Store: data})

	listings, err := a.ListProduce(context.Background())
	if err != nil {
		t.Fatalf("list should tolerate lookup failures: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("listing lost: %+v", listings)
	}
	if listings[0].SellerContact != "" {
		t.Fatalf("contact should be absent, got %q", listings[0].SellerContact)
	}
}

type brokenProfileStore struct {
	store.Store
}

func (b brokenProfileStore) GetProfile(string) (domain.Profile, bool, error) {
	return domain.Profile{}, false, errors.New("store offline")
}

func TestInventoryOwnershipAndScope(t *testing.T) {
	data := store.NewMemoryStore()
	a := newTestApp(t, data, newFakeObjectStore())
	farmerA := seedFarmer(t, data, "farmer-a")
	farmerB := seedFarmer(t, data, "farmer-b")

	when := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	item, err := a.CreateInventoryItem(context.Background(), farmerA, InventoryItemInput{
		ItemName:     "Maize seed",
		ItemType:     domain.ItemTypeSeed,
		Quantity:     "40",
		Unit:         "kg",
		PurchaseDate: &when,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := a.UpdateInventoryItem(context.Background(), farmerB, item.ID, InventoryItemInput{ItemName: "X", ItemType: domain.ItemTypeSeed, Quantity: "1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("cross-owner update: %v, want ErrUnauthorized", err)
	}
	if err := a.DeleteInventoryItem(context.Background(), farmerB, item.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("cross-owner delete: %v, want ErrUnauthorized", err)
	}

	mine, err := a.ListInventory(context.Background(), farmerA)
	if err != nil || len(mine) != 1 {
		t.Fatalf("owner list: %v items, err %v", len(mine), err)
	}
	theirs, err := a.ListInventory(context.Background(), farmerB)
	if err != nil || len(theirs) != 0 {
		t.Fatalf("inventory must be owner-scoped: %v items, err %v", len(theirs), err)
	}

	if _, err := a.CreateInventoryItem(context.Background(), farmerA, InventoryItemInput{ItemName: "Thing", ItemType: "Gadget", Quantity: "1"}); err == nil {
		t.Fatal("unknown item type should be rejected")
	}
}

func TestMarketItemConditionOnlyForEquipment(t *testing.T) {
	data := store.NewMemoryStore()
	a := newTestApp(t, data, newFakeObjectStore())
	seller := seedFarmer(t, data, "seller-1")

	// Condition is required for equipment.
	_, err := a.CreateMarketItem(context.Background(), seller, MarketItemInput{
		ItemName: "Tractor", Description: "Diesel, 45hp", Category: domain.CategoryEquipment, Price: 5000,
	}, imageUpload("img"))
	if err == nil {
		t.Fatal("equipment without condition should be rejected")
	}

	// Non-equipment categories drop any provided condition.
	item, err := a.CreateMarketItem(context.Background(), seller, MarketItemInput{
		ItemName: "Urea 50kg", Description: "Granular urea", Category: domain.CategoryFertilizers, Condition: domain.ConditionNew, Price: 45,
	}, imageUpload("img"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Condition != "" {
		t.Fatalf("condition should be cleared for %s, got %q", item.Category, item.Condition)
	}

	// Category filter.
	if _, err := a.CreateMarketItem(context.Background(), seller, MarketItemInput{
		ItemName: "Plough", Description: "Three furrow", Category: domain.CategoryEquipment, Condition: domain.ConditionUsedGood, Price: 300,
	}, imageUpload("img")); err != nil {
		t.Fatalf("create equipment: %v", err)
	}
	fert, err := a.ListMarketItems(context.Background(), domain.CategoryFertilizers)
	if err != nil || len(fert) != 1 {
		t.Fatalf("category filter: %d items, err %v", len(fert), err)
	}
	all, err := a.ListMarketItems(context.Background(), "")
	if err != nil || len(all) != 2 {
		t.Fatalf("unfiltered list: %d items, err %v", len(all), err)
	}
	if _, err := a.ListMarketItems(context.Background(), "Vehicles"); err == nil {
		t.Fatal("unknown category filter should be rejected")
	}
}

func TestListingValidationRequiresDescription(t *testing.T) {
	data := store.NewMemoryStore()
	objects := newFakeObjectStore()
	a := newTestApp(t, data, objects)
	farmer := seedFarmer(t, data, "farmer-1")

	in := produceInput()
	in.Description = "   "
	_, err := a.CreateProduceListing(context.Background(), farmer, in, imageUpload("img"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "description" {
		t.Fatalf("blank produce description: %v, want ValidationError on description", err)
	}

	_, err = a.CreateMarketItem(context.Background(), farmer, MarketItemInput{
		ItemName: "Shade net", Category: domain.CategorySeeds, Price: 12,
	}, imageUpload("img"))
	if !errors.As(err, &vErr) || vErr.Field != "description" {
		t.Fatalf("missing market item description: %v, want ValidationError on description", err)
	}

	if len(objects.puts) != 0 {
		t.Fatalf("validation failures must not upload, got %v", objects.puts)
	}
	listings, _ := data.ListProduceListings()
	if len(listings) != 0 {
		t.Fatalf("nothing should persist, got %+v", listings)
	}
}

func TestListingValidationAcceptsZeroPrice(t *testing.T) {
	data := store.NewMemoryStore()
	a := newTestApp(t, data, newFakeObjectStore())
	farmer := seedFarmer(t, data, "farmer-1")

	in := produceInput()
	in.Price = 0
	listing, err := a.CreateProduceListing(context.Background(), farmer, in, imageUpload("img"))
	if err != nil {
		t.Fatalf("zero price is a giveaway, not an error: %v", err)
	}
	if listing.Price != 0 {
		t.Fatalf("price = %v, want 0", listing.Price)
	}

	in.Price = -1
	var vErr *ValidationError
	if _, err := a.CreateProduceListing(context.Background(), farmer, in, imageUpload("img")); !errors.As(err, &vErr) || vErr.Field != "price" {
		t.Fatalf("negative price: %v, want ValidationError on price", err)
	}
}

func TestNonFarmerCannotUpdateProduce(t *testing.T) {
	data := store.NewMemoryStore()
	objects := newFakeObjectStore()
	a := newTestApp(t, data, objects)
	farmer := seedFarmer(t, data, "farmer-1")

	listing, err := a.CreateProduceListing(context.Background(), farmer, produceInput(), imageUpload("img"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	uploads := len(objects.puts)

	// Role revoked after the listing was created.
	profile, _, err := data.GetProfile(farmer.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	profile.IsFarmer = false
	if err := data.SaveProfile(profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	in := produceInput()
	in.ProduceName = "Cucumbers"
	_, err = a.UpdateProduceListing(context.Background(), farmer, listing.ID, in, imageUpload("img2"))
	if !errors.Is(err, ErrFarmerOnly) {
		t.Fatalf("err = %v, want ErrFarmerOnly", err)
	}
	if len(objects.puts) != uploads {
		t.Fatal("role gate must run before any upload")
	}
	listings, _ := data.ListProduceListings()
	if len(listings) != 1 || listings[0].ProduceName != "Tomatoes" {
		t.Fatalf("listing should be untouched, got %+v", listings)
	}
}
