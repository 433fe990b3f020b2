package entity

import "time"

type Book struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	ISBN            string    `json:"isbn"`
	OriginalPrice   float64   `json:"original_price"`
	FinalPrice      float64   `json:"final_price"`
	DiscountPercent float64   `json:"discount_percent"`
	Stock           int       `json:"stock"`
	CoverImage      string    `json:"cover_image"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookFilter narrows a book listing.
type BookFilter struct {
	Category string
	Limit    int
	Offset   int
}

// BookEvent is the payload published for every book mutation.
type BookEvent struct {
	Type string `json:"type"` // created, updated, deleted
	Book Book   `json:"book"`
}

/*
Schema MySQL for books table:
CREATE TABLE `books` (
  `id` int(11) NOT NULL AUTO_INCREMENT,
  `title` varchar(255) NOT NULL,
  `author` varchar(255) NOT NULL,
  `description` text NOT NULL,
  `category` varchar(100) NOT NULL DEFAULT '',
  `isbn` varchar(20) NOT NULL DEFAULT '',
  `original_price` double NOT NULL,
  `final_price` double NOT NULL,
  `discount_percent` double NOT NULL,
  `stock` int(11) NOT NULL,
  `cover_image` varchar(512) NOT NULL DEFAULT '',
  `created_at` datetime NOT NULL,
  `updated_at` datetime NOT NULL,
  PRIMARY KEY (`id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
