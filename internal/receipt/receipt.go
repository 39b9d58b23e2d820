// Package receipt issues and verifies signed sale receipts.
package receipt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ArtistSharePercent is the part of a sale paid out to the artist.
const ArtistSharePercent = 85

// Issuer is the JWT issuer of every receipt.
const Issuer = "vendart"

// Claims represents the receipt claims.
type Claims struct {
	ItemID      string `json:"item_id"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	PaymentRef  string `json:"payment_ref"`
	ArtistShare int    `json:"artist_share"`
	jwt.RegisteredClaims
}

// Receipt is what a buyer gets back after a purchase.
type Receipt struct {
	ItemID      string    `json:"item_id"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	PaymentRef  string    `json:"payment_ref"`
	ArtistShare int       `json:"artist_share"`
	SoldAt      time.Time `json:"sold_at"`
	Token       string    `json:"token"`
}

// Issue signs a receipt for a completed sale.
func Issue(secret, itemID, title, price, paymentRef string, soldAt time.Time) (*Receipt, error) {
	claims := Claims{
		ItemID:      itemID,
		Title:       title,
		Price:       price,
		PaymentRef:  paymentRef,
		ArtistShare: ArtistSharePercent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       paymentRef,
			Issuer:   Issuer,
			Subject:  itemID,
			IssuedAt: jwt.NewNumericDate(soldAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("signing receipt: %w", err)
	}

	return &Receipt{
		ItemID:      itemID,
		Title:       title,
		Price:       price,
		PaymentRef:  paymentRef,
		ArtistShare: ArtistSharePercent,
		SoldAt:      soldAt,
		Token:       signed,
	}, nil
}

// Verify parses and validates a receipt token, returning the claims.
func Verify(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid receipt")
	}

	return claims, nil
}
