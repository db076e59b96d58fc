package mysql

const insertCredentialSQL = `
INSERT INTO authentication (email, username, password_hash)
VALUES (?, ?, ?)
`

const selectCredentialSQL = `
SELECT email, username, password_hash
FROM authentication
WHERE email = ?
`

const emailExistsSQL = `
SELECT EXISTS(SELECT 1 FROM authentication WHERE email = ?)
`

// The scraped dataset has no surrogate id; title is the primary key and
// re-ingesting the same place refreshes the row.
const upsertRestaurantSQL = `
INSERT INTO gisdata
  (title, price, category_name, address, neighborhood, street, city, state,
   country_code, phone, phone_unformatted, latitude, longitude, plus_code,
   total_score, image_url)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  price             = VALUES(price),
  category_name     = VALUES(category_name),
  address           = VALUES(address),
  neighborhood      = VALUES(neighborhood),
  street            = VALUES(street),
  city              = VALUES(city),
  state             = VALUES(state),
  country_code      = VALUES(country_code),
  phone             = VALUES(phone),
  phone_unformatted = VALUES(phone_unformatted),
  latitude          = VALUES(latitude),
  longitude         = VALUES(longitude),
  plus_code         = VALUES(plus_code),
  total_score       = VALUES(total_score),
  image_url         = VALUES(image_url),
  updated_at        = CURRENT_TIMESTAMP
`

const listRestaurantsSQL = `
SELECT
  title, price, category_name, address, neighborhood, street, city, state,
  country_code, phone, phone_unformatted, latitude, longitude, plus_code,
  total_score, image_url
FROM gisdata
ORDER BY title
`
