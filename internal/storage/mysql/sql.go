package mysql

const upsertHotelSQL = `
INSERT INTO hotels
  (hotel_id, slug, doc)
VALUES
  (?, ?, ?)
ON DUPLICATE KEY UPDATE
  slug       = VALUES(slug),
  doc        = VALUES(doc),
  updated_at = CURRENT_TIMESTAMP
`

const getHotelSQL = `
SELECT doc
FROM hotels
WHERE hotel_id = ?
`

// Store order is hotel_id, matching the file backend's filename order.
const listHotelsSQL = `
SELECT hotel_id, doc
FROM hotels
ORDER BY hotel_id
`

const existsHotelSQL = `
SELECT EXISTS(SELECT 1 FROM hotels WHERE hotel_id = ?)
`
