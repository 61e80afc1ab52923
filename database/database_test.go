package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "db.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	d := NewDatabase(db)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDatabase_Users(t *testing.T) {
	d := openTestDatabase(t)
	require.NoError(t, d.Ping(context.Background()))

	user := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "hash"}
	require.NoError(t, d.CreateUser(user))
	assert.NotZero(t, user.ID)

	byID, err := d.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	byEmail, err := d.GetUserByEmail("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = d.GetUserByEmail("nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.Error(t, d.CreateUser(&models.User{FirstName: "A", LastName: "Lovelace", Email: "a@example.com", Password: "x"}))
}

func TestDatabase_ScenarioRoundTrip(t *testing.T) {
	d := openTestDatabase(t)
	user := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "hash"}
	require.NoError(t, d.CreateUser(user))

	in := calculator.DefaultInput()
	in.MonthlyIncome = 4000
	in.PaymentStrategy = calculator.Snowball
	in.Debts = []calculator.Debt{
		{Name: "Card", Balance: 1500, InterestRate: 19.9, MinimumPayment: 45, Type: calculator.DebtTypeCreditCard},
		{Name: "Loan", Balance: 800, InterestRate: 6, MinimumPayment: 30, Type: calculator.DebtTypePersonalLoan},
	}

	scenario := &models.Scenario{UserID: user.ID, Name: "Plan A"}
	scenario.SetInput(in)
	require.NoError(t, d.DB.Create(scenario).Error)

	var loaded models.Scenario
	require.NoError(t, d.DB.Preload("Debts", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&loaded, scenario.ID).Error)

	got := loaded.Input()
	assert.Equal(t, calculator.Snowball, got.PaymentStrategy)
	assert.Equal(t, 4000.0, got.MonthlyIncome)
	require.Len(t, got.Debts, 2)
	assert.Equal(t, "Card", got.Debts[0].Name)
	assert.Equal(t, calculator.DebtTypePersonalLoan, got.Debts[1].Type)
}
