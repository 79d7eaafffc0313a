package mysql

// Bulk inserts are built as prefix + N tuples + skipDuplicates. The no-op
// update makes MySQL report 0 affected rows for a duplicate, so RowsAffected
// counts only new rows. Foreign key errors still fail the statement.
const skipDuplicates = " ON DUPLICATE KEY UPDATE %[1]s = %[1]s"

// maxBatch keeps multi-row inserts well under the placeholder limit.
const maxBatch = 500

/********** users **********/

const userCols = "user_id, name, email, phone_number, verification_status"

const insertUsersPrefix = "INSERT INTO users (" + userCols + ") VALUES "
const userTuple = "(?, ?, ?, ?, ?)"

const selectUserSQL = "SELECT " + userCols + " FROM users WHERE user_id = ?"
const selectUserByEmailSQL = "SELECT " + userCols + " FROM users WHERE email = ?"

const updateUserSQL = `
UPDATE users
SET name = ?, email = ?, phone_number = ?, verification_status = ?, updated_at = CURRENT_TIMESTAMP
WHERE user_id = ?
`

const deleteUserSQL = "DELETE FROM users WHERE user_id = ?"

/********** owners & guests **********/

const insertOwnersPrefix = "INSERT INTO property_owners (user_id) VALUES "
const insertGuestsPrefix = "INSERT INTO guests (user_id) VALUES "
const markerTuple = "(?)"

const selectOwnerSQL = "SELECT id, user_id FROM property_owners WHERE id = ?"
const selectOwnerByUserSQL = "SELECT id, user_id FROM property_owners WHERE user_id = ?"

// completed with an IN list
const selectOwnersByUsersPrefix = "SELECT id, user_id FROM property_owners WHERE user_id IN "

const updateOwnerSQL = "UPDATE property_owners SET user_id = ? WHERE id = ?"
const deleteOwnerSQL = "DELETE FROM property_owners WHERE id = ?"

const selectGuestSQL = "SELECT id, user_id FROM guests WHERE id = ?"
const selectGuestByUserSQL = "SELECT id, user_id FROM guests WHERE user_id = ?"
const updateGuestSQL = "UPDATE guests SET user_id = ? WHERE id = ?"
const deleteGuestSQL = "DELETE FROM guests WHERE id = ?"

/********** properties **********/

const propertyCols = "property_id, owner_id, title, description, address_line1, city, country, price_per_night, max_guests, property_type, amenities"

const insertPropertiesPrefix = "INSERT INTO properties (" + propertyCols + ") VALUES "
const propertyTuple = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

const selectPropertySQL = "SELECT " + propertyCols + " FROM properties WHERE property_id = ?"
const selectPropertiesByOwnerSQL = "SELECT " + propertyCols + " FROM properties WHERE owner_id = ? ORDER BY created_at, property_id"

const updatePropertySQL = `
UPDATE properties
SET owner_id = ?, title = ?, description = ?, address_line1 = ?, city = ?, country = ?,
    price_per_night = ?, max_guests = ?, property_type = ?, amenities = ?, updated_at = CURRENT_TIMESTAMP
WHERE property_id = ?
`

const deletePropertySQL = "DELETE FROM properties WHERE property_id = ?"

/********** photos **********/

const photoCols = "photo_id, property_id, image_url, caption, room_type"

const insertPhotosPrefix = "INSERT INTO property_photos (" + photoCols + ") VALUES "
const photoTuple = "(?, ?, ?, ?, ?)"

const selectPhotoSQL = "SELECT " + photoCols + " FROM property_photos WHERE photo_id = ?"
const selectPhotosByPropertySQL = "SELECT " + photoCols + " FROM property_photos WHERE property_id = ? ORDER BY created_at, photo_id"

const updatePhotoSQL = "UPDATE property_photos SET property_id = ?, image_url = ?, caption = ?, room_type = ? WHERE photo_id = ?"
const deletePhotoSQL = "DELETE FROM property_photos WHERE photo_id = ?"

/********** reservations **********/

const reservationCols = "reservation_id, property_id, guest_id, check_in_date, check_out_date, total_price, guest_count, status, special_requests"

const insertReservationsPrefix = "INSERT INTO reservations (" + reservationCols + ") VALUES "
const reservationTuple = "(?, ?, ?, ?, ?, ?, ?, ?, ?)"

const selectReservationSQL = "SELECT " + reservationCols + " FROM reservations WHERE reservation_id = ?"
const selectReservationsByGuestSQL = "SELECT " + reservationCols + " FROM reservations WHERE guest_id = ? ORDER BY check_in_date, reservation_id"
const selectReservationsByPropertySQL = "SELECT " + reservationCols + " FROM reservations WHERE property_id = ? ORDER BY check_in_date, reservation_id"

const updateReservationSQL = `
UPDATE reservations
SET property_id = ?, guest_id = ?, check_in_date = ?, check_out_date = ?, total_price = ?,
    guest_count = ?, status = ?, special_requests = ?, updated_at = CURRENT_TIMESTAMP
WHERE reservation_id = ?
`

const deleteReservationSQL = "DELETE FROM reservations WHERE reservation_id = ?"

/********** reviews **********/

const reviewCols = "review_id, property_id, reviewer_id, rating, comment"

const insertReviewsPrefix = "INSERT INTO reviews (" + reviewCols + ") VALUES "
const reviewTuple = "(?, ?, ?, ?, ?)"

const selectReviewSQL = "SELECT " + reviewCols + " FROM reviews WHERE review_id = ?"
const selectReviewsByPropertySQL = "SELECT " + reviewCols + " FROM reviews WHERE property_id = ? ORDER BY created_at DESC, review_id"
const selectReviewsByReviewerSQL = "SELECT " + reviewCols + " FROM reviews WHERE reviewer_id = ? ORDER BY created_at DESC, review_id"

const updateReviewSQL = "UPDATE reviews SET property_id = ?, reviewer_id = ?, rating = ?, comment = ? WHERE review_id = ?"
const deleteReviewSQL = "DELETE FROM reviews WHERE review_id = ?"

/********** payments **********/

const paymentCols = "payment_id, reservation_id, amount, payment_method, status, transaction_fee"

const insertPaymentsPrefix = "INSERT INTO payments (" + paymentCols + ") VALUES "
const paymentTuple = "(?, ?, ?, ?, ?, ?)"

const selectPaymentSQL = "SELECT " + paymentCols + " FROM payments WHERE payment_id = ?"
const selectPaymentsByReservationSQL = "SELECT " + paymentCols + " FROM payments WHERE reservation_id = ? ORDER BY created_at, payment_id"

const updatePaymentSQL = "UPDATE payments SET reservation_id = ?, amount = ?, payment_method = ?, status = ?, transaction_fee = ? WHERE payment_id = ?"
const deletePaymentSQL = "DELETE FROM payments WHERE payment_id = ?"
